package telegram

import (
	"fmt"
	"html"
	"strings"
)

const welcomeMessage = `
👋 Welcome to the Currency Chart Bot!

🔹 Currency Commands:
/eur - Get EUR conversion chart
/usd - Get USD conversion chart
/aed - Get AED conversion chart
/pln - Get PLN conversion chart
/rub - Get RUB conversion chart
/rico - Get Rico.ge exchange rates

🔢 Calculator Feature:
Just start with a number to calculate!
Examples:
• /2+3 = 5
• /2*2+2 = 6
• /10/2 = 5

📝 Currency Usage Examples:
• /eur - Get random EUR amount chart
• /eur 100 - Convert 100 EUR
• /eur 100USD - Convert 100 USD to EUR
• /eur 100 R-2 - Apply -2% rate adjustment

✨ Inline Mode:
Type @botname followed by an expression to calculate inline:
• @botname 2+2
• @botname 10*5

Use /help for detailed information about all commands.
`

const helpHeader = `
📚 <b>Currency Chart Bot Help</b>

💱 Currency Commands:
All currency commands support these formats:
• /{currency} - Random amount
• /{currency} 100 - Specific amount
• /{currency} 100USD - Convert from USD
• /{currency} 100 R±2 - Adjust rate by ±2%

🧮 Calculator Usage:
Start with a number to calculate expressions:
• /2+3 - Addition
• /10*5 - Multiplication
• /15/3 - Division
• /8-4 - Subtraction
• /2*2+2 - Multiple operations

✨ Inline Mode:
Use the bot in any chat by typing @botname followed by:
• 2+2 - Calculate expressions

<b>Available Commands:</b>`

// commands in the order they are listed by /help.
var commands = []struct {
	name string
	desc string
}{
	{"start", "Start the bot and see welcome message"},
	{"help", "Show all available commands and their usage"},
	{"eur", "Get EUR conversion chart. Usage: /eur [amount][currency] [R±rate%]\nExample: /eur 100USD R-2"},
	{"usd", "Get USD conversion chart. Usage: /usd [amount][currency] [R±rate%]"},
	{"aed", "Get AED conversion chart. Usage: /aed [amount][currency] [R±rate%]"},
	{"pln", "Get PLN conversion chart. Usage: /pln [amount][currency] [R±rate%]"},
	{"rub", "Get RUB conversion chart. Usage: /rub [amount][currency] [R±rate%]"},
	{"rico", "Get current exchange rates from Rico.ge"},
	{"groupid", "Get the ID of the current chat group"},
}

const errorMessage = "Sorry, something went wrong. Please try again later."

const (
	ricoProgressText = "Fetching latest rates from Rico.ge..."
	groupOnlyText    = "❌ This command only works in group chats.\nAdd me to a group and try again!"
	throttledText    = "⏳ Too many requests. Please wait a minute and try again."

	unexpectedErrorText = "😕 An unexpected error occurred.\n" +
		"The bot team has been notified. Please try again in a few minutes.\n\n" +
		"If the issue persists, you can:\n" +
		"• Use /help to check command usage\n" +
		"• Try a different currency or amount\n" +
		"• Start a new conversation with /start"

	calcInvalidText = "❌ Error: Invalid expression\n\n" +
		"Examples:\n" +
		"• /2+3 (addition)\n" +
		"• /10*5 (multiplication)\n" +
		"• /15/3 (division)\n" +
		"• /8-4 (subtraction)\n" +
		"• /2*2+2 (multiple operations)"
	calcDivisionByZeroText = "❌ Error: Division by zero is not allowed\n\nPlease avoid dividing by zero."

	inlineHelpTitle       = "Calculator Help"
	inlineHelpDescription = "Type a math expression (e.g., 2+2)"
	inlineHelpText        = "*Calculator Usage:*\nType a math expression (e.g., 2+2)"
)

func helpMessage() string {
	var b strings.Builder
	b.WriteString(helpHeader)
	for _, c := range commands {
		fmt.Fprintf(&b, "\n/%s - %s", c.name, c.desc)
	}
	return b.String()
}

func fetchFailedText() string {
	return "😕 " + errorMessage + "\nIf this persists, please try again in a few minutes."
}

func progressText(from, to string) string {
	return fmt.Sprintf("🔄 Converting %s to %s...\nGetting latest rates from XE.com...", from, to)
}

// usageText lists input examples for the base command. The USD command suggests EUR as the source.
func usageText(base string) string {
	base = strings.ToUpper(base)
	cmd := "/" + strings.ToLower(base)
	source := "100USD"
	if base == "USD" {
		source = "100EUR"
	}
	return fmt.Sprintf("❌ Invalid input format!\n\n"+
		"Examples:\n"+
		"• %s %s - Convert from %s\n"+
		"• %s 100 - Convert %s\n"+
		"• %s 100 R-2 - Apply -2%% rate\n\n"+
		"Type /help for more information.",
		cmd, source, source[3:], cmd, base, cmd)
}

func groupIDText(id int64, title string) string {
	return fmt.Sprintf("📢 Group ID: <code>%d</code>\nGroup Name: <b>%s</b>", id, html.EscapeString(title))
}

func calcResultText(expression, formatted string) string {
	return fmt.Sprintf("```\n%s = %s\n```\nResult: `%s`", expression, formatted, formatted)
}
