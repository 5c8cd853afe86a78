package notify

import (
	"fmt"
	"strings"
	"time"

	"asur-wears/internal/models"
)

const brand = "Asur Wears"

// OTPMessage renders the email carrying a one-time code
func OTPMessage(to, code string, otpType models.OTPType, ttl time.Duration) Message {
	purpose := "sign in"
	switch otpType {
	case models.OTPTypeSignup:
		purpose = "finish creating your account"
	case models.OTPTypeReset:
		purpose = "reset your password"
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s verification code: %s", brand, code),
		Body: fmt.Sprintf("Use %s to %s at %s.\n\nThe code expires in %d minutes and works once. "+
			"If you did not ask for it, ignore this email.\n", code, purpose, brand, int(ttl.Minutes())),
	}
}

// OrderConfirmationMessage renders the receipt sent after checkout
func OrderConfirmationMessage(order *models.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for shopping with %s. Order %s is confirmed.\n\n",
		order.Customer.Name, brand, order.OrderNumber)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %d x %s (%s)  ₹%.2f\n", item.Quantity, item.Name, item.Size, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "\nSubtotal: ₹%.2f\n", order.Subtotal)
	if order.Discount > 0 {
		fmt.Fprintf(&b, "Discount (%s): -₹%.2f\n", order.CouponCode, order.Discount)
	}
	fmt.Fprintf(&b, "Shipping: ₹%.2f\nTotal: ₹%.2f\n\n", order.ShippingCost, order.TotalAmount)
	fmt.Fprintf(&b, "Estimated delivery: %s\n", order.EstimatedDelivery.Format("Mon, 02 Jan 2006"))

	return Message{
		To:      order.Customer.Email,
		Subject: fmt.Sprintf("%s order %s confirmed", brand, order.OrderNumber),
		Body:    b.String(),
	}
}

// OrderStatusMessage renders the update sent when an order moves on
func OrderStatusMessage(order *models.Order) Message {
	return Message{
		To:      order.Customer.Email,
		Subject: fmt.Sprintf("%s order %s is %s", brand, order.OrderNumber, order.Status),
		Body: fmt.Sprintf("Hi %s,\n\nYour order %s is now %s.\n", order.Customer.Name,
			order.OrderNumber, order.Status),
	}
}
