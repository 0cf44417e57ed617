package bot

// Command constants for Telegram bot commands.
const (
	CommandStart   = "/start"
	CommandDraw    = "/draw"
	CommandProfile = "/profile"
	CommandCancel  = "/cancel"
	CommandHelp    = "/help"
)

// Callback data constants for inline button interactions.
const (
	CallbackDrawAgain = "draw_again"
)
