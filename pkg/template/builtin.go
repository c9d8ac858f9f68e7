package template

// builtinTemplates are the stock templates every registry starts with.
// Additional templates can be registered at startup from a YAML file.
var builtinTemplates = []Template{
	{
		ID:        "welcome",
		Name:      "Welcome Email",
		Subject:   "Welcome to {{company_name}}!",
		Variables: []string{"company_name", "user_name", "dashboard_url"},
		HTML: `<!DOCTYPE html>
<html>
  <head><meta charset="UTF-8"></head>
  <body style="font-family: sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1>Welcome, {{user_name}}!</h1>
      <p>We're excited to have you on board at <strong>{{company_name}}</strong>!</p>
      <p>Your workspace is ready and waiting for you. Get started by exploring your dashboard.</p>
      <p><a href="{{dashboard_url}}">Go to Dashboard</a></p>
      <p>If you have any questions, feel free to reach out. We're here to help!</p>
    </div>
  </body>
</html>`,
		Text: `Welcome, {{user_name}}!

We're excited to have you on board at {{company_name}}!

Your workspace is ready and waiting for you. Get started by exploring your dashboard.

Go to Dashboard: {{dashboard_url}}

If you have any questions, feel free to reach out. We're here to help!`,
	},
	{
		ID:        "notification",
		Name:      "System Notification",
		Subject:   "{{notification_title}}",
		Variables: []string{"notification_title", "notification_message", "action_url", "action_text"},
		HTML: `<!DOCTYPE html>
<html>
  <head><meta charset="UTF-8"></head>
  <body style="font-family: sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2>{{notification_title}}</h2>
      <p>{{notification_message}}</p>
      {{#if action_url}}<p><a href="{{action_url}}">{{action_text}}</a></p>{{/if}}
      <p style="color: #64748b; font-size: 12px;">You're receiving this because you have an account with us.</p>
    </div>
  </body>
</html>`,
		Text: `{{notification_title}}

{{notification_message}}

{{#if action_url}}{{action_text}}: {{action_url}}{{/if}}

You're receiving this because you have an account with us.`,
	},
	{
		ID:        "invoice",
		Name:      "Invoice/Receipt",
		Subject:   "Your invoice from {{company_name}}",
		Variables: []string{"company_name", "customer_name", "invoice_number", "amount", "date", "invoice_url"},
		HTML: `<!DOCTYPE html>
<html>
  <head><meta charset="UTF-8"></head>
  <body style="font-family: sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h1>Invoice</h1>
      <p><strong>Invoice #{{invoice_number}}</strong></p>
      <p>Date: {{date}}</p>
      <p>Hi {{customer_name}},</p>
      <p>Thank you for your payment!</p>
      <p><strong>Amount Paid:</strong> {{amount}}</p>
      <p><a href="{{invoice_url}}">View Invoice</a></p>
      <p>If you have any questions about this invoice, please contact us.</p>
    </div>
  </body>
</html>`,
		Text: `INVOICE

Invoice #{{invoice_number}}
Date: {{date}}

Hi {{customer_name}},

Thank you for your payment!

Amount Paid: {{amount}}

View Invoice: {{invoice_url}}

If you have any questions about this invoice, please contact us.`,
	},
	{
		ID:        "support",
		Name:      "Support Response",
		Subject:   "Re: {{ticket_subject}}",
		Variables: []string{"customer_name", "ticket_subject", "ticket_number", "response_message", "support_url"},
		HTML: `<!DOCTYPE html>
<html>
  <head><meta charset="UTF-8"></head>
  <body style="font-family: sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <h2>Support Update</h2>
      <p>Hi {{customer_name}},</p>
      <p><strong>Ticket #{{ticket_number}}</strong><br>Subject: {{ticket_subject}}</p>
      <blockquote>{{response_message}}</blockquote>
      <p><a href="{{support_url}}">View Full Conversation</a></p>
      <p>If you need further assistance, just reply to this email!</p>
    </div>
  </body>
</html>`,
		Text: `Support Update

Hi {{customer_name}},

Ticket #{{ticket_number}}
Subject: {{ticket_subject}}

{{response_message}}

View Full Conversation: {{support_url}}

If you need further assistance, just reply to this email!`,
	},
}
