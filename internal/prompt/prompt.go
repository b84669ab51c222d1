// Package prompt asks the operator to pick one entry from a list.
package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned when the operator backs out of a prompt.
var ErrCancelled = errors.New("selection cancelled")

// Selector returns one of items, or an error when nothing was chosen.
type Selector interface {
	Select(label string, items []string) (string, error)
}

// Terminal is a Selector backed by an interactive terminal list.
type Terminal struct{}

const pageSize = 10

func (t Terminal) Select(label string, items []string) (string, error) {
	if len(items) == 0 {
		return "", ErrCancelled
	}
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  pageSize,
	}
	_, chosen, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
			return "", ErrCancelled
		}
		return "", err
	}
	return chosen, nil
}
