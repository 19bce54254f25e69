package shopping

import (
	"github.com/dukerupert/despensa/internal/apperr"
	"github.com/dukerupert/despensa/internal/model"
)

// Command is a lifecycle command issued against a list.
type Command int

const (
	CommandStart Command = iota
	CommandFinalize
)

func (c Command) String() string {
	switch c {
	case CommandStart:
		return "start"
	case CommandFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Next returns the status a list moves to when cmd is applied to it, or an
// InvalidTransition error. Preconditions on the list's items are checked too.
func Next(list *model.ShoppingList, cmd Command) (model.ListStatus, error) {
	switch list.Status {
	case model.ListDraft:
		switch cmd {
		case CommandStart:
			if len(list.Items) == 0 {
				return list.Status, apperr.InvalidTransition("add at least one item before starting the list")
			}
			return model.ListShopping, nil
		case CommandFinalize:
			return list.Status, apperr.InvalidTransition("start the list before finishing it")
		}
	case model.ListShopping:
		switch cmd {
		case CommandStart:
			return list.Status, apperr.InvalidTransition("list is already being shopped")
		case CommandFinalize:
			if list.PurchasedCount() == 0 {
				return list.Status, apperr.InvalidTransition("mark at least one item as purchased before finishing the list")
			}
			return model.ListCompleted, nil
		}
	case model.ListCompleted:
		return list.Status, apperr.InvalidTransition("list is already completed")
	}
	return list.Status, apperr.InvalidTransition("cannot %s a list in status %q", cmd, list.Status)
}

// Editable reports whether items may be added, removed or flagged urgent.
func Editable(status model.ListStatus) bool {
	switch status {
	case model.ListDraft, model.ListShopping:
		return true
	case model.ListCompleted:
		return false
	}
	return false
}
