package email

import (
	"fmt"
	"net/smtp"
)

// smtpServer is the address of the SMTP server used to send summary mails.
var smtpServer string

// auth holds the credentials for the SMTP connection, initialized once by
// InitEmailService.
var auth smtp.Auth

// fromEmail is the sender address used in outgoing summary mails.
var fromEmail string

// InitEmailService initializes the mailer by establishing an SMTP connection
// to the configured email server with the sender's credentials, and verifies
// the server is reachable before the service starts accepting work.
func InitEmailService(sender, password string) (bool, error) {
	smtpServer = "smtp.gmail.com:587"
	fromEmail = sender

	auth = smtp.PlainAuth(
		"",
		sender,
		password,
		"smtp.gmail.com",
	)

	c, err := smtp.Dial(smtpServer)
	if err != nil {
		return false, fmt.Errorf("cannot connect to the SMTP server: %v", err)
	}

	err = c.Close()
	if err != nil {
		return false, fmt.Errorf("cannot close the SMTP connection: %v", err)
	}

	return true, nil
}

// SendWeeklySummary sends one user their points summary for the week starting
// at weekStart (YYYY-MM-DD). Called by the summary queue consumers, which own
// retry and dedupe; this function only formats and sends.
func SendWeeklySummary(to, weekStart string, totalPoints, dailyPoints, weeklyPoints int) error {
	headers := make(map[string]string)
	headers["From"] = fromEmail
	headers["To"] = to
	headers["Subject"] = fmt.Sprintf("Your habit summary for the week of %s", weekStart)
	headers["MIME-version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=\"UTF-8\""

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}

	body := fmt.Sprintf(`
	<html>
		<body>
			<div style="max-width: 600px; margin: 0 auto; padding: 10px; font-family: sans-serif;">
				<h1>Week of %s</h1>
				<p>You earned <strong>%d points</strong> this week:</p>
				<ul>
					<li>%d from daily checkboxes</li>
					<li>%d from weekly bonuses</li>
				</ul>
				<p>Keep the streaks going!</p>
			</div>
		</body>
	</html>
	`, weekStart, totalPoints, dailyPoints, weeklyPoints)
	message += "\r\n" + body

	err := smtp.SendMail(
		smtpServer,
		auth,
		fromEmail,
		[]string{to},
		[]byte(message),
	)

	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}
