package mail

import (
	"fmt"
	"time"
)

// WelcomeMessage is the email sent to a user right after they join the
// waitlist.
func WelcomeMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to MiroMiro Waitlist!",
		HTML: `
      <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h1 style="color: #333;">Welcome to MiroMiro!</h1>
        <p style="font-size: 16px; color: #666;">
          Thank you for joining our waitlist! We're excited to have you on board.
        </p>
        <p style="font-size: 16px; color: #666;">
          You'll be among the first to know when we launch our Chrome extension that helps designers and developers extract assets, colors, typography, and generate complete design systems instantly.
        </p>
        <p style="font-size: 16px; color: #666;">
          Stay tuned for updates!
        </p>
        <p style="font-size: 14px; color: #999; margin-top: 30px;">
          Best regards,<br/>
          The MiroMiro Team
        </p>
      </div>
    `,
	}
}

// OperatorNotification tells the operator address about a new waitlist
// signup.
func OperatorNotification(operator, signupEmail string, at time.Time) Message {
	return Message{
		To:      operator,
		Subject: "New Waitlist Signup",
		HTML: fmt.Sprintf(`
      <div style="font-family: Arial, sans-serif;">
        <h2>New Waitlist Signup</h2>
        <p><strong>Email:</strong> %s</p>
        <p><strong>Date:</strong> %s</p>
      </div>
    `, signupEmail, at.Format(time.RFC1123)),
	}
}

// ConfirmationMessage asks a freshly signed-up user to confirm their email.
// confirmURL points back at the origin the signup request came from.
func ConfirmationMessage(to, confirmURL string) Message {
	return Message{
		To:      to,
		Subject: "Confirm your MiroMiro account",
		HTML: fmt.Sprintf(`
      <div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
        <h1 style="color: #333;">Confirm your email</h1>
        <p style="font-size: 16px; color: #666;">
          Click the link below to confirm your MiroMiro account.
        </p>
        <p style="font-size: 16px;">
          <a href="%s">Confirm my account</a>
        </p>
        <p style="font-size: 14px; color: #999; margin-top: 30px;">
          If you did not sign up, you can ignore this email.
        </p>
      </div>
    `, confirmURL),
	}
}

// TestMessage is the fixed payload sent by the mail test endpoint.
func TestMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "MiroMiro mail test",
		Text:    "Hello from the MiroMiro mail dispatcher!",
	}
}
