package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"headless-storefront/internal/domain"
)

const defaultCurrency = "USD"

// State is what the coordinator publishes. Listeners and State() receive deep copies.
type State struct {
	Cart          *domain.Cart
	IsLoading     bool
	IsInitialized bool
	Error         string
}

func (s State) clone() State {
	out := s
	out.Cart = s.Cart.Clone()
	return out
}

func (s State) TotalQuantity() int {
	if s.Cart == nil {
		return 0
	}
	return s.Cart.TotalQuantity
}

func (s State) TotalAmount() string {
	if s.Cart == nil {
		return "0.00"
	}
	return s.Cart.Cost.TotalAmount.Fixed()
}

func (s State) CurrencyCode() string {
	if s.Cart == nil || s.Cart.Cost.TotalAmount.CurrencyCode == "" {
		return defaultCurrency
	}
	return s.Cart.Cost.TotalAmount.CurrencyCode
}

func (s State) Lines() []domain.CartLine {
	if s.Cart == nil {
		return nil
	}
	return s.Cart.Lines
}

func (s State) CheckoutURL() string {
	if s.Cart == nil {
		return ""
	}
	return s.Cart.CheckoutURL
}

// AppliedDiscountCodes lists the codes the server accepted as applicable.
func (s State) AppliedDiscountCodes() []string {
	if s.Cart == nil {
		return nil
	}
	var codes []string
	for _, dc := range s.Cart.DiscountCodes {
		if dc.Applicable {
			codes = append(codes, dc.Code)
		}
	}
	return codes
}

// DiscountSavings sums the server's discount allocations. No discount math happens here.
func (s State) DiscountSavings() string {
	total := decimal.Zero
	if s.Cart != nil {
		for _, a := range s.Cart.DiscountAllocations {
			total = total.Add(a.DiscountedAmount.Amount)
		}
	}
	return total.StringFixed(2)
}

func (s State) hasDiscountCode(code string) bool {
	if s.Cart == nil {
		return false
	}
	for _, dc := range s.Cart.DiscountCodes {
		if strings.EqualFold(dc.Code, code) {
			return true
		}
	}
	return false
}

// LineByMerchandise finds the line holding a variant.
func (s State) LineByMerchandise(merchandiseID string) (domain.CartLine, bool) {
	for _, l := range s.Lines() {
		if l.Merchandise.ID == merchandiseID {
			return l, true
		}
	}
	return domain.CartLine{}, false
}

func (s State) ItemQuantity(merchandiseID string) int {
	l, ok := s.LineByMerchandise(merchandiseID)
	if !ok {
		return 0
	}
	return l.Quantity
}

// Summary holds display-ready cost lines formatted "<CUR> <amount>".
type Summary struct {
	Subtotal       string
	Total          string
	Tax            string
	Duty           string
	CheckoutCharge string
}

// Summary returns nil without a cart. Optional costs the server omitted stay empty.
func (s State) Summary() *Summary {
	if s.Cart == nil {
		return nil
	}
	cost := s.Cart.Cost
	sum := &Summary{
		Subtotal: cost.SubtotalAmount.Format(),
		Total:    cost.TotalAmount.Format(),
	}
	if cost.TotalTaxAmount != nil {
		sum.Tax = cost.TotalTaxAmount.Format()
	}
	if cost.TotalDutyAmount != nil {
		sum.Duty = cost.TotalDutyAmount.Format()
	}
	if cost.CheckoutChargeAmount != nil {
		sum.CheckoutCharge = cost.CheckoutChargeAmount.Format()
	}
	return sum
}

type Metrics struct {
	TotalItems  int
	UniqueItems int
	IsEmpty     bool
}

func (s State) Metrics() Metrics {
	total := s.Cart.LineQuantity()
	return Metrics{
		TotalItems:  total,
		UniqueItems: len(s.Lines()),
		IsEmpty:     total == 0,
	}
}
