// Package messaging defines the event contract shared by publishers and consumers.
package messaging

import (
	"context"
)

// ProductsSubjectPrefix roots every inventory subject; the stream captures ProductsSubjects.
const (
	ProductsSubjectPrefix = "inventory.products"
	ProductsSubjects      = ProductsSubjectPrefix + ".>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// ProductSubject returns the subject for a product action, e.g. inventory.products.create.
func ProductSubject(action string) string {
	return ProductsSubjectPrefix + "." + action
}
