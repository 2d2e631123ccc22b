// internal/software/client.go
package software

import (
	"context"
	"fmt"

	"github.com/tamzrod/installer-client/internal/notify"
	"github.com/tamzrod/installer-client/internal/proxy"
	"github.com/tamzrod/installer-client/internal/variant"
)

// Property and method names of the software catalog interface.
const (
	propAvailableProducts = "AvailableBaseProducts"
	propSelectedProduct   = "SelectedBaseProduct"

	methodSelectProduct = "SelectProduct"
	methodGetUILanguage = "GetUILanguage"
	methodSetUILanguage = "SetUILanguage"
)

// Product is one installable base product.
// Snapshots are value types: fresh on every read, never mutated.
type Product struct {
	ID   string
	Name string
}

// Client reads and drives the software catalog service.
type Client struct {
	h *proxy.Handle
	n *notify.Notifier
}

func New(h *proxy.Handle) *Client {
	return &Client{h: h, n: notify.New(h)}
}

// GetProducts decodes the available base products. Each wire element is
// a (id, name, metadata) tuple; the metadata field is dropped.
func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	if err := c.h.Wait(ctx); err != nil {
		return nil, err
	}

	prop, err := c.h.Property(propAvailableProducts)
	if err != nil {
		return nil, err
	}

	elems, err := variant.AsArray(prop)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(elems))
	for _, e := range elems {
		fields, err := variant.AsStruct(e, 2)
		if err != nil {
			return nil, err
		}
		id, err := variant.AsString(fields[0])
		if err != nil {
			return nil, err
		}
		name, err := variant.AsString(fields[1])
		if err != nil {
			return nil, err
		}
		products = append(products, Product{ID: id, Name: name})
	}
	return products, nil
}

// GetSelectedProduct returns the id of the selected base product.
func (c *Client) GetSelectedProduct(ctx context.Context) (string, error) {
	if err := c.h.Wait(ctx); err != nil {
		return "", err
	}

	prop, err := c.h.Property(propSelectedProduct)
	if err != nil {
		return "", err
	}
	return variant.AsString(prop)
}

// SelectProduct selects the base product to install.
func (c *Client) SelectProduct(ctx context.Context, id string) error {
	if err := c.h.Wait(ctx); err != nil {
		return err
	}
	_, err := c.h.Invoke(ctx, methodSelectProduct, id)
	return err
}

// GetUILanguage returns the language the backend uses for the UI.
func (c *Client) GetUILanguage(ctx context.Context) (string, error) {
	if err := c.h.Wait(ctx); err != nil {
		return "", err
	}

	out, err := c.h.Invoke(ctx, methodGetUILanguage)
	if err != nil {
		return "", err
	}
	return variant.AsString(out)
}

// SetUILanguage sets the backend UI language and reports acceptance.
func (c *Client) SetUILanguage(ctx context.Context, lang string) (bool, error) {
	if err := c.h.Wait(ctx); err != nil {
		return false, err
	}

	out, err := c.h.Invoke(ctx, methodSetUILanguage, lang)
	if err != nil {
		return false, err
	}
	return variant.AsBool(out)
}

// OnSelectedProductChange delivers the selected product id on every
// change signal that carries it. Decode failures are forwarded so the
// observer can resync with GetSelectedProduct.
func (c *Client) OnSelectedProductChange(cb func(string, error)) (func(), error) {
	if cb == nil {
		return nil, fmt.Errorf("software: callback required")
	}
	return c.n.OnChange(func(ev notify.Event) {
		if ev.Err != nil {
			cb("", ev.Err)
			return
		}
		if ev.WasInvalidated(propSelectedProduct) {
			ctx := context.Background()
			if err := c.h.Refresh(ctx); err != nil {
				cb("", err)
				return
			}
			cb(c.GetSelectedProduct(ctx))
			return
		}
		v, ok := ev.Changed[propSelectedProduct]
		if !ok {
			return
		}
		cb(variant.AsString(v))
	})
}

// Close cancels the change subscription, if one was established.
func (c *Client) Close() error {
	return c.n.Close()
}
