package eligibility

import "weak"

// Observer receives the outcome of every dispatched check. Exactly one of
// the two methods is called, once, per check. Calls arrive on the transport's
// goroutine, not the caller's.
type Observer interface {
	OnSuccess(result map[string]any)
	OnFailure(err *Error)
}

// observerRef is a non-owning handle on the caller's observer.
type observerRef func() Observer

func weakObserver[T any, PT interface {
	*T
	Observer
}](observer PT) observerRef {
	wp := weak.Make((*T)(observer))
	return func() Observer {
		p := wp.Value()
		if p == nil {
			return nil
		}
		return PT(p)
	}
}

// deliver hands the outcome to the observer. It reports false when the
// observer has already been released by its owner.
func (r observerRef) deliver(o Outcome) bool {
	if r == nil {
		return false
	}
	obs := r()
	if obs == nil {
		return false
	}
	if result, ok := o.Result(); ok {
		obs.OnSuccess(result)
	} else {
		obs.OnFailure(o.Err())
	}
	return true
}
