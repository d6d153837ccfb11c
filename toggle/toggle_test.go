package toggle

import (
	"errors"
	"testing"
)

func TestApplyRevertsOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		start   bool
		next    bool
		reqErr  error
		want    bool
		wantErr bool
	}{
		{name: "Success keeps flip", start: false, next: true, reqErr: nil, want: true},
		{name: "Failure reverts", start: false, next: true, reqErr: errors.New("denied"), want: false, wantErr: true},
		{name: "Failure reverts downward flip", start: true, next: false, reqErr: errors.New("denied"), want: true, wantErr: true},
		{name: "No-op flip succeeds", start: true, next: true, reqErr: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewField(tt.start)
			var seenOptimistic bool
			err := Apply(f, tt.next, func(next bool) error {
				// the view must already show the new value while the request runs
				seenOptimistic = f.Bool() == next
				return tt.reqErr
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !seenOptimistic {
				t.Error("control was not flipped before the request")
			}
			if f.Bool() != tt.want {
				t.Errorf("state after settle = %v, want %v", f.Bool(), tt.want)
			}
		})
	}
}

func TestCascadeChildrenAreIndependent(t *testing.T) {
	parent := NewField(false)
	okChild := NewField(false)
	badChild := NewField(false)
	grandchild := NewField(false)

	var requests int
	req := func(fail bool) RequestFunc {
		return func(bool) error {
			requests++
			if fail {
				return errors.New("server said no")
			}
			return nil
		}
	}

	node := &Node{Ctrl: parent, Req: req(false), Children: []*Node{
		{Ctrl: okChild, Req: req(false)},
		{Ctrl: badChild, Req: req(true), Children: []*Node{
			{Ctrl: grandchild, Req: req(false)},
		}},
	}}

	errs := node.Cascade(true)
	if len(errs) != 1 {
		t.Fatalf("Cascade() errors = %d, want 1", len(errs))
	}
	if requests != 4 {
		t.Errorf("requests = %d, want one per node", requests)
	}
	if !parent.Bool() || !okChild.Bool() || !grandchild.Bool() {
		t.Error("successful nodes must keep the optimistic flip")
	}
	if badChild.Bool() {
		t.Error("failed node must revert while siblings keep their state")
	}
}
