package constant

const EmailRegistrationConfirmedTemplate = `
Dear %s,

Thank you for registering! Your registration has been confirmed.

Registration Details:
------------------------------------------
Confirmation Code: %s
Total Amount: %s
------------------------------------------

Please keep your confirmation code, you will need it at the venue entrance.

If you have any questions or need assistance, please contact our support team at support@event-registration.com.

Best regards,
Event Registration Team

Note: This is an automated message, please do not reply to this email.
`

const EmailRegistrationPendingTemplate = `
Dear %s,

Thank you for registering! Your registration has been received and is awaiting approval by the organizer.

Registration Details:
------------------------------------------
Confirmation Code: %s
Total Amount: %s
------------------------------------------

You will receive another email once your registration has been reviewed.

If you have any questions or need assistance, please contact our support team at support@event-registration.com.

Best regards,
Event Registration Team

Note: This is an automated message, please do not reply to this email.
`

const EmailRegistrationCancelledTemplate = `
Dear %s,

We regret to inform you that your registration has been cancelled.

Registration Details:
------------------------------------------
Confirmation Code: %s
Total Amount: %s
------------------------------------------

If you have any questions or need assistance, please contact our support team at support@event-registration.com.

Best regards,
Event Registration Team

Note: This is an automated message, please do not reply to this email.
`
