// Package toggle implements optimistic binary state changes. The view flips
// first, the server decides, a refused change flips back.
package toggle

// Control is a binary view control that can be flipped and restored.
type Control interface {
	Bool() bool
	SetBool(v bool)
}

// Field is the plain in-memory Control used by the table rows.
type Field struct {
	v bool
}

func NewField(v bool) *Field    { return &Field{v: v} }
func (f *Field) Bool() bool     { return f.v }
func (f *Field) SetBool(v bool) { f.v = v }

// RequestFunc sends the authoritative change to the server.
type RequestFunc func(next bool) error

// Apply flips the control to next immediately, then issues the request.
// On any error the control is reverted to its previous value and the
// error is returned for the caller to show.
func Apply(c Control, next bool, req RequestFunc) error {
	prev := c.Bool()
	c.SetBool(next)
	if err := req(next); err != nil {
		c.SetBool(prev)
		return err
	}
	return nil
}

// Node is one monitored control in a series/season/episode tree.
type Node struct {
	Ctrl     Control
	Req      RequestFunc
	Children []*Node
}

// Cascade toggles the node and every descendant to next. Each node runs its
// own request and reverts independently, a parent toggle is N child toggles
// and not one batched request. Returned errors keep tree order.
func (n *Node) Cascade(next bool) []error {
	var errs []error
	if err := Apply(n.Ctrl, next, n.Req); err != nil {
		errs = append(errs, err)
	}
	for idx := range n.Children {
		errs = append(errs, n.Children[idx].Cascade(next)...)
	}
	return errs
}
