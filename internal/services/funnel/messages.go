package funnel

const (
	msgOnboarding = "👋 Welcome! I'm an AI assistant you can chat with right here in Messenger.\n\n" +
		"By continuing you accept our terms of use and privacy policy. Tap \"I agree\" to get started."
	msgAlreadyAgreed    = "You're all set. Just send me a message."
	msgAskTrialNumber   = "Great! Send your mobile number (for example 0912345678) to unlock your free trial of %d messages a day."
	msgAskAnotherNumber = "OK, send another mobile number for your free trial."
	msgInvalidNumber    = "That doesn't look like a valid mobile number. Please send it like 0912345678."
	msgTrialNumberUsed  = "This number has already been used for a free trial. " +
		"You can try another number or choose a plan."
	msgTrialActivated = "✅ Your free trial is active! You can send up to %d messages a day. Ask me anything."

	msgChoosePlanFirst         = "Please choose a plan first:"
	msgAskPaymentNumber        = "You chose the %s plan (%s). Send the mobile money number you want to pay with."
	msgAskAnotherPaymentNumber = "OK, send the mobile money number you want to pay with."
	msgPaymentRequested        = "📲 A payment request for %s was sent to %s. Approve it on your phone to activate your plan."
	msgPaymentNotStarted       = "We couldn't start the payment. Check the number and send it again, or type \"cancel\"."
	msgPaymentInProgress       = "⏳ Your payment is still being processed. Approve it on your phone or type \"cancel\" to stop waiting."
	msgSubscriptionExpired     = "⌛ %s subscription has expired. Choose a plan to keep chatting:"

	msgTrialLimitReached = "You've used all %d free messages for today. Subscribe to keep chatting:"
	msgDailyLimitReached = "You've reached today's limit of %d messages. Your quota renews at midnight."
	msgTextOnly          = "I can only read text messages for now."
	msgAssistantApology  = "Sorry, I couldn't prepare an answer right now. Please try again in a moment."
	msgGenericError      = "Sorry, something went wrong. Please try again."

	msgHelp = "Here's what you can do:\n" +
		"• Ask me anything and I'll answer\n" +
		"• status: see your plan and today's usage\n" +
		"• cancel: stop a pending payment or phone registration\n" +
		"• resetme: reset today's message counters\n" +
		"• start: start over from the beginning"
	msgHelpHint               = "Type \"help\" to see what I can do."
	msgNothingToCancel        = "There's nothing to cancel right now. Type \"help\" to see what I can do."
	msgPaymentCancelled       = "Your pending payment was cancelled. You can keep chatting or choose a plan again anytime."
	msgRegistrationCancelled  = "Phone registration cancelled. Tap \"I agree\" again whenever you want to start your trial."
	msgPlanSelectionCancelled = "Plan selection cancelled."
	msgCountersReset          = "Today's message counters have been reset."
	msgCommandFailed          = "Sorry, I couldn't complete \"%s\". Please try again."
)
