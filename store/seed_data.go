package store

// Reference content loaded at startup: the reusable buttons, the
// response templates the engine renders, a starter catalog for fresh
// deploys and the market quotes its pricing needs. Idempotent: buttons,
// templates and quotes are keyed by name or symbol, the catalog only
// loads into an empty products table.

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/telestar/shopbot/bot/pricing"
)

type seedButton struct {
	Name         string
	Text         string
	CallbackData string
}

type seedTemplateButton struct {
	ButtonName string
	Number     int
}

type seedTemplate struct {
	Name         string
	Text         string
	Placeholders []string
	Buttons      []seedTemplateButton
}

var seedButtons = []seedButton{
	{"btn_send_validation_code", "📱 send verification code to phone number", "send_validation_code"},
	{"btn_edit_phone_number", "📝 Edit phone number", "edit_phone_number"},
	{"btn_return_to_menu", "🔁 return to menu", "return_to_menu"},
	{"btn_login_to_account", "🚪 Login", "login_to_account:{phone_number}"},
	{"btn_show_prices", "💰 Show prices", "show_prices"},
	{"btn_show_terms", "📜 Show terms of service", "show_terms"},
	{"btn_support", "🆘 Support", "support"},
	// Turned into a URL button at render time; the callback data is a
	// safe dummy that never fires.
	{"btn_pay_invoice", "💳 Pay Invoice", "noop"},
	{"btn_payment_gateway", "💳 Pay via gateway", "payment_gateway:{order_id}"},
	{"btn_i_paid", "✅ I Paid", "confirm_payment:{order_id}"},
	{"btn_cancel_order", "❌ Cancel Order", "cancel_order:{order_id}"},
	{"btn_read_the_terms", "✅ I read the terms", "read_the_terms"},
	{"btn_accepted_terms", "✅ I agree and accept", "accepted_terms"},
	{"btn_show_terms_for_acceptance", "📜 See terms of service", "show_terms_for_acceptance"},
	{"btn_contact_support", "📞 contact with support", "contact_support"},
	{"btn_common_questions", "❓ commonly asked questions", "common_questions"},
	{"btn_return_to_support", "📞 Return to Support", "return_to_support"},
}

var seedTemplates = []seedTemplate{
	{
		Name: "unsupported_command",
		Text: "❌ Unsupported command.",
	},
	{
		Name: "phone_number_input",
		Text: `
🌟 **Welcome to the shop bot!**

📱 **To start, please enter your phone number:**
• Enter the phone number in the ` + "`09123456789`" + ` format
• The phone number must belong to you
• This phone number is used for verifying your identity and direct payment

💡 **Keep note:**
• Your phone number will remain safe and secret
• It will only be used for verifying your identity and payment
• You can change it at any time

🔐 **Security:**
• All your information is stored using encryption
• No data will be shared with a third party
`,
	},
	{
		Name:         "phone_number_verification_needed",
		Text:         "\n❌ **Your phone number ({phone_number}) has not been verified**\n📱 In order to continue, please verify your phone number.\n",
		Placeholders: []string{"phone_number"},
		Buttons: []seedTemplateButton{
			{"btn_send_validation_code", 1},
			{"btn_edit_phone_number", 2},
			{"btn_return_to_menu", 3},
		},
	},
	{
		Name: "authentication_failed",
		Text: "*authentication failed*",
	},
	{
		Name: "max_attempt_reached",
		Text: "❌ *too many failed attempts. canceled*",
	},
	{
		Name: "invalid_phone_number",
		Text: "❌ *phone number is invalid*",
	},
	{
		Name: "invalid_otp",
		Text: "❌ *validation code is invalid*",
	},
	{
		Name:         "chat_verification_needed",
		Text:         "\nWe need to make sure that this chat belongs to the user with this phone number:\n`{phone_number}`\n",
		Placeholders: []string{"phone_number"},
		Buttons: []seedTemplateButton{
			{"btn_send_validation_code", 1},
			{"btn_edit_phone_number", 2},
			{"btn_return_to_menu", 3},
		},
	},
	{
		Name:         "login_to_account",
		Text:         "\n⚠️ **There is already a user with this phone number ({phone_number}).**\nDo you want to login to this account or edit your phone number?\n",
		Placeholders: []string{"phone_number"},
		Buttons: []seedTemplateButton{
			{"btn_login_to_account", 1},
			{"btn_edit_phone_number", 2},
			{"btn_return_to_menu", 3},
		},
	},
	{
		Name:         "already_logged_in",
		Text:         "\n❌ **You are already logged in**\nYou are currently logged in to the account with phone number: `{phone_number}`\n",
		Placeholders: []string{"phone_number"},
		Buttons: []seedTemplateButton{
			{"btn_return_to_menu", 1},
		},
	},
	{
		Name: "phone_number_verification",
		Text: `
✅ **The verification code has been sent to your phone number.**
Please enter the code.

💳 **Important points about bank accounts:**
• The account you use for payment must belong to the owner of the phone number
• The system verifies whether the phone number and the account number belong to the same person
• If they don't, your payment will not go through
• If the account belongs to someone else, please use another account
`,
	},
	{
		Name: "phone_number_verified",
		Text: "\n✅ **Phone number successfully verified!**\n🌟 Showing the products...\n",
	},
	{
		Name: "loading_prices_message",
		Text: "💰 please wait a moment to get the most up to date prices",
	},
	{
		Name:         "get_prices",
		Text:         "\n📊 **Current Prices:**\n\n{prices_block}\n",
		Placeholders: []string{"prices_block"},
		Buttons: []seedTemplateButton{
			{"btn_return_to_menu", 1},
		},
	},
	{
		Name: "return_to_menu",
		Text: `
🌟 *Welcome to the shop bot!*

━━━━━━━━━━━━━━━━━━━━

💡 Choose a product below:

{products_block}

━━━━━━━━━━━━━━━━━━━━
`,
		Placeholders: []string{"products_block"},
		Buttons: []seedTemplateButton{
			// Static actions go after the dynamic product rows.
			{"btn_show_prices", 100},
			{"btn_show_terms", 101},
			{"btn_support", 102},
		},
	},
	{
		Name: "buy_product",
		Text: `
🎉 *Buying {product_name}!*

**List of prices** 📋

{prices_block}

💡 *To choose the desired product, press the relevant button.*
`,
		Placeholders: []string{"product_name", "prices_block"},
		Buttons: []seedTemplateButton{
			{"btn_return_to_menu", 100},
		},
	},
	{
		Name: "buy_product_version",
		Text: `
🛒 **Chosen product:**
📦 {product_name} — **{product_version_name}**

💰 Price: {price}

━━━━━━━━━━━━━━━━━━━━
💳 Please choose your payment method:
`,
		Placeholders: []string{"product_name", "product_version_name", "price", "order_id"},
		Buttons: []seedTemplateButton{
			{"btn_payment_gateway", 1},
			{"btn_cancel_order", 2},
			{"btn_return_to_menu", 3},
		},
	},
	{
		Name: "payment_gateway",
		Text: `
💻 **Pay via Payment Gateway**

📦 Product: {product_name}
💰 Amount: {amount}

━━━━━━━━━━━━━━━━━━━━

📝 **Instructions:**
1️⃣ Tap **"Pay Invoice"**
2️⃣ Review the invoice details
3️⃣ Tap **Online Payment** on the invoice page
4️⃣ You will be redirected to the payment gateway
5️⃣ Enter your card/bank details
6️⃣ After a successful payment, tap **"I Paid"** here

🆔 Invoice ID: ` + "`{order_id}`" + `

━━━━━━━━━━━━━━━━━━━━
`,
		Placeholders: []string{"product_name", "amount", "order_id"},
		Buttons: []seedTemplateButton{
			{"btn_pay_invoice", 1},
			{"btn_i_paid", 2},
			{"btn_cancel_order", 3},
		},
	},
	{
		Name: "payment_confirmed",
		Text: `
✅ **Payment Confirmed**

Thank you. Your payment has been successfully verified.
Your order is now marked as **PAID** and will be processed.

━━━━━━━━━━━━━━━━━━━━
🆔 Order ID: ` + "`{order_id}`" + `

If you need anything else, you can return to the main menu.
`,
		Placeholders: []string{"order_id"},
		Buttons: []seedTemplateButton{
			{"btn_return_to_menu", 1},
		},
	},
	{
		Name: "payment_not_confirmed",
		Text: `
⏳ **Payment Not Found**

We could not verify any successful payment for this order yet.
This may happen if:
• The payment is still being processed
• The payment failed or was canceled
• You have not completed the payment

━━━━━━━━━━━━━━━━━━━━
🆔 Order ID: ` + "`{order_id}`" + `

Please complete the payment and then press **"I Paid"** again.
`,
		Placeholders: []string{"order_id"},
		Buttons: []seedTemplateButton{
			{"btn_pay_invoice", 1},
			{"btn_cancel_order", 2},
			{"btn_return_to_menu", 3},
		},
	},
	{
		Name: "order_canceled",
		Text: `
❌ **Order Canceled**

Your order has been canceled and will not be processed.

━━━━━━━━━━━━━━━━━━━━
🆔 Order ID: ` + "`{order_id}`" + `
`,
		Placeholders: []string{"order_id"},
		Buttons: []seedTemplateButton{
			{"btn_return_to_menu", 1},
		},
	},
	{
		Name: "terms_and_conditions",
		Text: `
**Terms and Conditions**

By using the shop bot you are obligated to follow our terms of service.
If you agree to the terms, press the *'agree and accept'* button.
`,
		Buttons: []seedTemplateButton{
			{"btn_accepted_terms", 1},
			{"btn_show_terms_for_acceptance", 2},
		},
	},
	{
		Name: "show_terms_conditions",
		Text: `
📜 **Terms of service agreement**

🔰 **Terms of Using the Shop Bot:**

1️⃣ **General Rules:**
• The user is required to provide accurate and complete information.
• Any misuse of the service is prohibited.

2️⃣ **Payment Rules:**
• Payments are non-refundable.
• Some transactions may require up to 72 hours for verification before
  the product is delivered.

3️⃣ **Privacy:**
• Your personal information will be kept confidential.
• The information is used for identity and payment verification.
• Information will not be shared with any third party.

4️⃣ **Responsibilities:**
• We are committed to delivering products intact and on time.
• The user is responsible for the accuracy of the information they provide.
• Any form of fraud will result in being banned from the service.

5️⃣ **Support:**
• Support is available to you.
• Response time: up to 2 hours.

⚠️ **Note:** By using this service, you accept all of the above terms.
`,
		Buttons: []seedTemplateButton{
			{"btn_read_the_terms", 1},
			{"btn_return_to_menu", 2},
		},
	},
	{
		Name: "support",
		Text: `
🆘 **Shop bot support section**

━━━━━━━━━━━━━━━━━━━━

In order to receive help, pick one of the options below:

📞 *Contact with support* – contact info.
❓ *Commonly asked questions* – common answers.
🔁 *Return to main menu* – returns to the main menu.

━━━━━━━━━━━━━━━━━━━━

💡 **Note:** For faster support, first look at commonly asked questions.
`,
		Buttons: []seedTemplateButton{
			{"btn_contact_support", 1},
			{"btn_common_questions", 2},
			{"btn_return_to_menu", 3},
		},
	},
	{
		Name: "contact_support_info",
		Text: `
📞 **Support Contact Information**

━━━━━━━━━━━━━━━━━━━━

👤 **Telegram Support:**
• @ShopSupport

━━━━━━━━━━━━━━━━━━━━

⏰ **Working Hours:**
• 24/7 (Available around the clock)

💡 **Important Notes:**
• For the fastest response, provide your invoice ID
• In case of payment issues, send your transaction details
• For delivery tracking, include your delivery reference
`,
		Buttons: []seedTemplateButton{
			{"btn_return_to_menu", 1},
			{"btn_return_to_support", 2},
		},
	},
	{
		Name: "common_questions",
		Text: `
❔ **Commonly asked Q&A**

━━━━━━━━━━━━━━━━━━━━

1) How long does delivery take? Usually under an hour after payment.
2) Can I pay from someone else's account? No, the account must belong
   to the verified phone number's owner.
3) Can I change my phone number? Yes, from the verification screen.

━━━━━━━━━━━━━━━━━━━━
`,
		Buttons: []seedTemplateButton{
			{"btn_return_to_menu", 1},
			{"btn_return_to_support", 2},
		},
	},
}

type seedVersion struct {
	Name         string
	Strategy     pricing.Strategy
	FixedPrice   string
	MarketSymbol string
	Units        string
	MarginBps    int64
}

// terms parses the literal price fields into pricing terms. Shared by
// the seeder and the seed-integrity tests so both price the same way.
func (v seedVersion) terms() (pricing.Terms, error) {
	t := pricing.Terms{
		Strategy:     v.Strategy,
		MarketSymbol: v.MarketSymbol,
		MarginBps:    v.MarginBps,
	}
	if v.FixedPrice != "" {
		d, err := decimal.NewFromString(v.FixedPrice)
		if err != nil {
			return pricing.Terms{}, fmt.Errorf("fixed price %q: %w", v.FixedPrice, err)
		}
		t.FixedPrice = decimal.NewNullDecimal(d)
	}
	if v.Units != "" {
		u, err := decimal.NewFromString(v.Units)
		if err != nil {
			return pricing.Terms{}, fmt.Errorf("units %q: %w", v.Units, err)
		}
		t.Units = u
	}
	return t, nil
}

type seedProduct struct {
	Name        string
	Description string
	Displayable bool
	Versions    []seedVersion
}

type seedQuote struct {
	Symbol string
	Price  string
}

// seedProducts is the starter catalog for a fresh deploy. The seeder
// skips it entirely once any product exists, so live catalogs are
// never touched.
var seedProducts = []seedProduct{
	{
		Name:        "Premium Stars Pack",
		Displayable: true,
		Versions: []seedVersion{
			{Name: "version 1", Strategy: pricing.Fixed, FixedPrice: "15000"},
			{Name: "version 2", Strategy: pricing.Fixed, FixedPrice: "30000"},
		},
	},
	{
		Name:        "Telegram Premium Upgrade",
		Displayable: true,
		Versions: []seedVersion{
			{Name: "one month", Strategy: pricing.Fixed, FixedPrice: "120000"},
			{Name: "12 month", Strategy: pricing.Fixed, FixedPrice: "1100000"},
		},
	},
	{
		Name:        "TON Coin",
		Displayable: true,
		Versions: []seedVersion{
			{Name: "5 TON", Strategy: pricing.Market, MarketSymbol: "TON", Units: "5"},
			{Name: "10 TON", Strategy: pricing.MarketPlusMargin, MarketSymbol: "TON", Units: "10", MarginBps: 250},
		},
	},
	{
		Name:        "Special Offer Bundle",
		Displayable: false,
		Versions: []seedVersion{
			{Name: "special", Strategy: pricing.Fixed, FixedPrice: "9999"},
			{Name: "super special", Strategy: pricing.Fixed, FixedPrice: "15999"},
		},
	},
}

// seedQuotes backs the market-priced catalog entries. Inserted only
// when the symbol is absent; a live feed keeps ownership afterwards.
var seedQuotes = []seedQuote{
	{Symbol: "TON", Price: "320000"},
}
