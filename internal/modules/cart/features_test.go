package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/georgemunganga/printa-pos/internal/modules/catalog"
	"github.com/georgemunganga/printa-pos/internal/modules/pos"
	"github.com/georgemunganga/printa-pos/internal/modules/tenant"
	"github.com/shopspring/decimal"
)

type cartTestContext struct {
	engine *Engine
	scope  tenant.Scope
}

func (c *cartTestContext) anEmptyCartForStoreBranch(storeID, branchID string) error {
	c.engine = New(nil)
	c.scope = tenant.Scope{
		Store:  tenant.Store{ID: storeID, Label: storeID},
		Branch: tenant.Branch{ID: branchID, Label: branchID},
	}
	return nil
}

func (c *cartTestContext) iAddProductPriced(id string, price int) error {
	c.engine.AddLine(catalog.Product{ID: id, Name: id, Price: decimal.NewFromInt(int64(price))})
	return nil
}

func (c *cartTestContext) iAdjustBy(id string, delta int) error {
	c.engine.AdjustQuantity(id, delta)
	return nil
}

func (c *cartTestContext) iRemove(id string) error {
	c.engine.RemoveLine(id)
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := c.engine.Len(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	if !c.engine.IsEmpty() {
		return fmt.Errorf("expected empty cart, got %d lines", c.engine.Len())
	}
	return nil
}

func (c *cartTestContext) theQuantityOfIs(id string, n int) error {
	if got := c.engine.Quantity(id); got != n {
		return fmt.Errorf("expected quantity %d for %s, got %d", n, id, got)
	}
	return nil
}

func (c *cartTestContext) theDraftHasSubtotalAndTotal(subtotal, total int) error {
	d, err := c.engine.Draft(c.scope)
	if err != nil {
		return err
	}
	if !d.Subtotal.Equal(decimal.NewFromInt(int64(subtotal))) {
		return fmt.Errorf("expected subtotal %d, got %s", subtotal, d.Subtotal)
	}
	if !d.Total.Equal(decimal.NewFromInt(int64(total))) {
		return fmt.Errorf("expected total %d, got %s", total, d.Total)
	}
	return nil
}

func (c *cartTestContext) theDraftLineForHasLineTotal(id string, total int) error {
	d, err := c.engine.Draft(c.scope)
	if err != nil {
		return err
	}
	for _, it := range d.Items {
		if it.ProductID == id {
			if !it.LineTotal.Equal(decimal.NewFromInt(int64(total))) {
				return fmt.Errorf("expected line total %d for %s, got %s", total, id, it.LineTotal)
			}
			return nil
		}
	}
	return fmt.Errorf("no draft line for %s", id)
}

func (c *cartTestContext) buildingADraftFailsWithAnInvalidCheckout() error {
	_, err := c.engine.Draft(c.scope)
	if !errors.Is(err, pos.ErrInvalidCheckout) {
		return fmt.Errorf("expected invalid checkout, got %v", err)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.engine = New(nil)
		tc.scope = tenant.Scope{}
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart for store "([^"]*)" branch "([^"]*)"$`, tc.anEmptyCartForStoreBranch)

	// When steps
	ctx.Step(`^I add product "([^"]*)" priced (\d+)$`, tc.iAddProductPriced)
	ctx.Step(`^I adjust "([^"]*)" by (-?\d+)$`, tc.iAdjustBy)
	ctx.Step(`^I remove "([^"]*)"$`, tc.iRemove)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines$`, tc.theCartHasLines)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the quantity of "([^"]*)" is (\d+)$`, tc.theQuantityOfIs)
	ctx.Step(`^the draft has subtotal (\d+) and total (\d+)$`, tc.theDraftHasSubtotalAndTotal)
	ctx.Step(`^the draft line for "([^"]*)" has line total (\d+)$`, tc.theDraftLineForHasLineTotal)
	ctx.Step(`^building a draft fails with an invalid checkout$`, tc.buildingADraftFailsWithAnInvalidCheckout)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
