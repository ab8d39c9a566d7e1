package tensor

import (
	"errors"
	"fmt"
)

// Backward seeds a gradient of ones at t and propagates it through the
// recorded graph. Only leaves keep their gradient; it is added to whatever
// they already hold. Losses are expected to be single-element tensors.
func (t *Tensor) Backward() error {
	switch {
	case t == nil:
		return errors.New("nil tensor")
	case !t.requiresGrad:
		return errors.New("tensor does not require grad")
	case len(t.data) != 1:
		return fmt.Errorf("Backward expects a single-element tensor, got shape %v", t.shape)
	}
	pending := map[*Tensor]*Tensor{t: Full(1, t.shape...)}
	order := reverseTopo(t)
	for _, cur := range order {
		grad, ok := pending[cur]
		if !ok {
			continue
		}
		delete(pending, cur)
		if cur.node != nil {
			cur.node.backward(grad, pending)
			continue
		}
		if cur.grad == nil {
			cur.grad = grad
		} else {
			addInPlace(cur.grad, grad)
		}
	}
	return nil
}

// reverseTopo orders the graph under root so every tensor comes before the
// tensors it was computed from.
func reverseTopo(root *Tensor) []*Tensor {
	type frame struct {
		t    *Tensor
		next int
	}
	seen := map[*Tensor]bool{root: true}
	var post []*Tensor
	stack := []frame{{t: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.t.parents) {
			p := top.t.parents[top.next]
			top.next++
			if p != nil && !seen[p] {
				seen[p] = true
				stack = append(stack, frame{t: p})
			}
			continue
		}
		post = append(post, top.t)
		stack = stack[:len(stack)-1]
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// accumulate adds a copy of value to the pending gradient of target.
func accumulate(grads map[*Tensor]*Tensor, target, value *Tensor) {
	if target == nil || value == nil {
		return
	}
	if existing, ok := grads[target]; ok {
		addInPlace(existing, value)
		return
	}
	grads[target] = value.Clone()
}

func addInPlace(dst, src *Tensor) {
	if err := dst.AddScaled(src, 1); err != nil {
		panic(err)
	}
}
