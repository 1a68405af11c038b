package inventory

import (
	"context"
	"fmt"
	"time"
)

// Kind tells the render layer how to present a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
)

// Tier is where a change ended up.
type Tier string

const (
	// TierRemote means the remote catalog confirmed the change.
	TierRemote Tier = "remote"
	// TierLocal means only the in-memory collection holds the change.
	TierLocal Tier = "local"
)

// Action names the store operation a notification belongs to.
type Action string

const (
	ActionLoad   Action = "load"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Notification is the human readable outcome of a store operation.
type Notification struct {
	Kind        Kind      `json:"kind"`
	Action      Action    `json:"action"`
	Tier        Tier      `json:"tier"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ProductID   string    `json:"productId,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier receives every notification the store produces.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

func loadedNotification(count int, at time.Time) Notification {
	return Notification{
		Kind:        KindSuccess,
		Action:      ActionLoad,
		Tier:        TierRemote,
		Title:       "Products loaded",
		Description: fmt.Sprintf("%d products loaded", count),
		At:          at,
	}
}

func seededNotification(at time.Time) Notification {
	return Notification{
		Kind:        KindWarning,
		Action:      ActionLoad,
		Tier:        TierLocal,
		Title:       "Failed to load products",
		Description: "Using sample data instead",
		At:          at,
	}
}

func createdNotification(p Product, tier Tier, at time.Time) Notification {
	desc := fmt.Sprintf("%s has been added successfully", p.Name)
	if tier == TierLocal {
		desc = fmt.Sprintf("%s has been added to local storage", p.Name)
	}
	return Notification{
		Kind:        KindSuccess,
		Action:      ActionCreate,
		Tier:        tier,
		Title:       "Product added",
		Description: desc,
		ProductID:   p.ID,
		At:          at,
	}
}

func updatedNotification(p Product, tier Tier, at time.Time) Notification {
	desc := fmt.Sprintf("%s has been updated successfully", p.Name)
	if tier == TierLocal {
		desc = fmt.Sprintf("%s has been updated in local storage", p.Name)
	}
	return Notification{
		Kind:        KindSuccess,
		Action:      ActionUpdate,
		Tier:        tier,
		Title:       "Product updated",
		Description: desc,
		ProductID:   p.ID,
		At:          at,
	}
}

func deletedNotification(id string, tier Tier, at time.Time) Notification {
	desc := "The product has been removed successfully"
	if tier == TierLocal {
		desc = "The product has been removed from local storage"
	}
	return Notification{
		Kind:        KindSuccess,
		Action:      ActionDelete,
		Tier:        tier,
		Title:       "Product deleted",
		Description: desc,
		ProductID:   id,
		At:          at,
	}
}
