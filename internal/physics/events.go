package physics

// CollideEvent is delivered to handlers of Target when it starts touching
// Body. Contact is shared between both deliveries of the same pair.
type CollideEvent struct {
	Target  *Body
	Body    *Body
	Contact *Contact
}

type CollideHandler func(CollideEvent)

// Subscription identifies one registered handler.
type Subscription struct {
	bodyID uint64
	id     uint64
}

func (s Subscription) BodyID() uint64 { return s.bodyID }

// Valid reports whether the subscription was issued by OnCollide.
func (s Subscription) Valid() bool { return s.id != 0 }

type handlerEntry struct {
	id uint64
	fn CollideHandler
}

type eventBus struct {
	nextID   uint64
	handlers map[uint64][]handlerEntry
}

func newEventBus() *eventBus {
	return &eventBus{handlers: make(map[uint64][]handlerEntry)}
}

func (e *eventBus) on(bodyID uint64, fn CollideHandler) Subscription {
	e.nextID++
	e.handlers[bodyID] = append(e.handlers[bodyID], handlerEntry{id: e.nextID, fn: fn})
	return Subscription{bodyID: bodyID, id: e.nextID}
}

func (e *eventBus) off(sub Subscription) bool {
	list := e.handlers[sub.bodyID]
	for i, h := range list {
		if h.id != sub.id {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(e.handlers, sub.bodyID)
		} else {
			e.handlers[sub.bodyID] = list
		}
		return true
	}
	return false
}

func (e *eventBus) drop(bodyID uint64) {
	delete(e.handlers, bodyID)
}

func (e *eventBus) count(bodyID uint64) int {
	return len(e.handlers[bodyID])
}

// dispatch copies the handler list so handlers may unsubscribe themselves.
func (e *eventBus) dispatch(ev CollideEvent) {
	list := e.handlers[ev.Target.ID]
	if len(list) == 0 {
		return
	}
	snapshot := make([]handlerEntry, len(list))
	copy(snapshot, list)
	for _, h := range snapshot {
		h.fn(ev)
	}
}
