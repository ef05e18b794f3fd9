package chatbot

// Command represents supported bot commands
type Command string

const (
	CommandStart   Command = "start"
	CommandCheckin Command = "checkin"
	CommandHelp    Command = "help"
)

// InboundMessage is the part of a Telegram update the bot acts on.
type InboundMessage struct {
	UpdateID  int
	UserID    int64
	ChatID    int64
	Text      string
	IsCommand bool
}

const (
	greetingText = "Hi, I'm CalmNest 🌿\n" +
		"You can talk to me anytime. I'm here to listen.\n\n" +
		"Commands:\n" +
		"/checkin on — enable daily check-ins\n" +
		"/checkin off — disable check-ins"

	helpText = "CalmNest 🌿 is here to listen whenever you want to talk.\n\n" +
		"Commands:\n" +
		"/start — say hello\n" +
		"/checkin — show whether check-ins are on\n" +
		"/checkin on — enable daily check-ins\n" +
		"/checkin off — disable check-ins\n" +
		"/help — show this message"

	checkinStatusFormat = "Check-ins are currently %s\n\n" +
		"Usage:\n" +
		"/checkin on — I'll send gentle check-ins throughout the day\n" +
		"/checkin off — No automatic messages"

	checkinEnabledText = "Check-ins enabled ✅\n" +
		"I'll send you a gentle message a few times a day 🌿"

	checkinDisabledText = "Check-ins disabled ❌\n" +
		"You won't receive automatic messages. You can always re-enable with /checkin on"

	commandErrorText = "Sorry, something went wrong on my side. Please try again in a moment 🌿"
)
