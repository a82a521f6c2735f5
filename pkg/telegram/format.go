package telegram

import (
	"html"
	"strconv"
	"strings"

	"github.com/keepsake/keepsake/pkg/reminder"
)

const (
	reminderHeader  = "🎉 <b>Today's reminders</b>"
	testMessage     = "🎉 Test notification from Keepsake! Your notifications are working correctly."
	linkedMessage   = "✅ Setup complete! You will get a message here on the day of each of your events."
	unlinkedMessage = "🔕 Reminders stopped. Send /start to link this chat again."
)

// FormatMessage renders notices as one HTML message, one block per event.
func FormatMessage(notices []reminder.Notice) string {
	var b strings.Builder
	b.WriteString(reminderHeader)
	for _, n := range notices {
		b.WriteString("\n\n🎂 <b>")
		b.WriteString(html.EscapeString(n.Name))
		b.WriteString("</b>")
		if n.EventLabel != "" {
			b.WriteString("'s ")
			b.WriteString(html.EscapeString(n.EventLabel))
		}
		if n.IsRecurring && n.YearCount > 0 {
			b.WriteString("\n📅 since ")
			b.WriteString(strconv.Itoa(n.EventDate.Year))
			b.WriteString(" (")
			b.WriteString(years(n.YearCount))
			b.WriteString(")")
		}
		if n.Notes != "" {
			b.WriteString("\n📝 ")
			b.WriteString(html.EscapeString(n.Notes))
		}
	}
	return b.String()
}

func years(n int) string {
	if n == 1 {
		return "1 year"
	}
	return strconv.Itoa(n) + " years"
}
