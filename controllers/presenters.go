package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/pricing"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

// Responses carry money as two-decimal strings; rounding happens only here.

type choiceJSON struct {
	Group      string `json:"group"`
	Choice     string `json:"choice"`
	PriceDelta string `json:"price_delta"`
}

type lineJSON struct {
	ID         uint         `json:"id"`
	FoodItemID uint         `json:"food_item_id"`
	Name       string       `json:"name"`
	Quantity   int          `json:"quantity"`
	UnitPrice  string       `json:"unit_price"`
	Choices    []choiceJSON `json:"customizations"`
	LineTotal  string       `json:"total"`
}

type feeJSON struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
}

func presentLines(lines []services.CartLine) []lineJSON {
	out := make([]lineJSON, 0, len(lines))
	for _, l := range lines {
		choices := make([]choiceJSON, 0, len(l.Selections))
		for i := range l.Selections {
			sel := &l.Selections[i]
			choices = append(choices, choiceJSON{
				Group:      sel.GroupName,
				Choice:     sel.ChoiceName,
				PriceDelta: utils.FormatMoney(sel.Delta()),
			})
		}
		out = append(out, lineJSON{
			ID:         l.ID,
			FoodItemID: l.FoodItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  utils.FormatMoney(l.UnitPrice),
			Choices:    choices,
			LineTotal:  utils.FormatMoney(l.LineTotal),
		})
	}
	return out
}

func presentFees(fees []pricing.Fee) []feeJSON {
	out := make([]feeJSON, 0, len(fees))
	for _, f := range fees {
		out = append(out, feeJSON{Type: f.Type, Amount: utils.FormatMoney(f.Amount)})
	}
	return out
}

func presentCart(view *services.CartView) gin.H {
	return gin.H{
		"cart_id":  view.CartID,
		"items":    presentLines(view.Lines),
		"subtotal": utils.FormatMoney(view.Subtotal),
	}
}

func presentCheckout(summary *services.CheckoutSummary) gin.H {
	return gin.H{
		"items":    presentLines(summary.Lines),
		"subtotal": utils.FormatMoney(summary.Totals.Subtotal),
		"fees":     presentFees(summary.Totals.Fees),
		"total":    utils.FormatMoney(summary.Totals.Total),
	}
}

type orderJSON struct {
	OrderID         string                      `json:"order_id"`
	Status          models.OrderStatus          `json:"status"`
	Canceled        bool                        `json:"canceled"`
	PaymentStatus   bool                        `json:"payment_status"`
	PaymentID       *string                     `json:"payment_id"`
	Invoice         *string                     `json:"invoice"`
	Source          string                      `json:"source"`
	DeliveryOption  models.DeliveryOption       `json:"delivery_option"`
	PickupTime      *time.Time                  `json:"pickup_time"`
	DeliveryAddress *models.ShippingAddress     `json:"delivery_location"`
	Items           []lineJSON                  `json:"items"`
	Subtotal        string                      `json:"subtotal"`
	Fees            []feeJSON                   `json:"fees"`
	Total           string                      `json:"total"`
	History         []models.OrderStatusHistory `json:"status_history,omitempty"`
	CreatedOn       time.Time                   `json:"created_on"`
}

func presentOrder(o *models.Order) (orderJSON, error) {
	lines, _, err := services.PriceLines(o.Items)
	if err != nil {
		return orderJSON{}, err
	}
	return orderJSON{
		OrderID:         o.Code,
		Status:          o.Status,
		Canceled:        o.Canceled,
		PaymentStatus:   o.PaymentStatus,
		PaymentID:       o.PaymentRef,
		Invoice:         o.Invoice,
		Source:          o.Source,
		DeliveryOption:  o.DeliveryOption,
		PickupTime:      o.PickupTime,
		DeliveryAddress: o.DeliveryAddress,
		Items:           presentLines(lines),
		Subtotal:        utils.FormatMoney(o.Subtotal),
		Fees: presentFees([]pricing.Fee{
			{Type: pricing.FeeDelivery, Amount: o.DeliveryFee},
			{Type: pricing.FeeProcessing, Amount: o.ProcessingFee},
			{Type: pricing.FeeVAT, Amount: o.VAT},
		}),
		Total:     utils.FormatMoney(o.Total),
		History:   o.StatusHistory,
		CreatedOn: o.CreatedAt,
	}, nil
}

func presentOrders(orders []models.Order) ([]orderJSON, error) {
	out := make([]orderJSON, 0, len(orders))
	for i := range orders {
		o, err := presentOrder(&orders[i])
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

type optionJSON struct {
	ID    uint   `json:"id"`
	Name  string `json:"option"`
	Price string `json:"price"`
}

type customizationJSON struct {
	ID       uint         `json:"id"`
	Name     string       `json:"title"`
	Required bool         `json:"required"`
	Default  *optionJSON  `json:"default_option"`
	Options  []optionJSON `json:"options"`
}

type foodJSON struct {
	ID             uint                `json:"id"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	About          string              `json:"about"`
	Price          string              `json:"price"`
	Category       string              `json:"category,omitempty"`
	Tags           []string            `json:"tags"`
	Available      bool                `json:"available"`
	Featured       bool                `json:"featured"`
	Customizations []customizationJSON `json:"customizations"`
}

func option(c models.Choice) optionJSON {
	return optionJSON{ID: c.ID, Name: c.Name, Price: utils.FormatMoney(c.PriceDelta)}
}

func presentFood(f *models.FoodItem) foodJSON {
	out := foodJSON{
		ID:             f.ID,
		Name:           f.Name,
		Slug:           f.Slug,
		About:          f.About,
		Price:          utils.FormatMoney(f.Price),
		Tags:           make([]string, 0, len(f.Tags)),
		Available:      f.Available,
		Featured:       f.Featured,
		Customizations: make([]customizationJSON, 0, len(f.OptionGroups)),
	}
	if f.Category != nil {
		out.Category = f.Category.Name
	}
	for _, t := range f.Tags {
		out.Tags = append(out.Tags, t.Tag)
	}
	for i := range f.OptionGroups {
		g := &f.OptionGroups[i]
		cj := customizationJSON{ID: g.ID, Name: g.Name, Required: g.Required, Options: make([]optionJSON, 0, len(g.Choices))}
		for _, c := range g.Choices {
			cj.Options = append(cj.Options, option(c))
		}
		if def, ok := g.DefaultChoice(); ok {
			d := option(*def)
			cj.Default = &d
		}
		out.Customizations = append(out.Customizations, cj)
	}
	return out
}

func stats(s *services.OrderStats) gin.H {
	return gin.H{
		"pending":           s.Pending,
		"active":            s.Active,
		"completed":         s.Completed,
		"canceled":          s.Canceled,
		"completed_revenue": utils.FormatMoney(s.CompletedRevenue),
	}
}
