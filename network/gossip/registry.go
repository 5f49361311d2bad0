package gossip

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/attestnet/attest/model/quorum"
	"github.com/attestnet/attest/network"
)

type registration struct {
	validator Validator
	processor MessageProcessor
}

// Registry provides the validator and processor store of the gossip engine, one
// registration per topic.
type Registry struct {
	mu    sync.RWMutex
	store map[network.Topic]registration
}

// NewRegistry returns a new empty registry
func NewRegistry() *Registry {
	return &Registry{
		store: make(map[network.Topic]registration),
	}
}

// Add registers the validator and processor of a topic.
func (r *Registry) Add(topic network.Topic, validator Validator, processor MessageProcessor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[topic]; ok {
		return errors.Errorf("topic (%s) already registered", topic)
	}

	r.store[topic] = registration{validator: validator, processor: processor}

	return nil
}

// Get returns the registration of the topic.
func (r *Registry) Get(topic network.Topic) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.store[topic]
	return reg, ok
}

// Topics returns the registered topics.
func (r *Registry) Topics() []network.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]network.Topic, 0, len(r.store))
	for topic := range r.store {
		topics = append(topics, topic)
	}
	return topics
}

// Validators returns the validators of every registered topic.
func (r *Registry) Validators() []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	validators := make([]Validator, 0, len(r.store))
	for _, reg := range r.store {
		validators = append(validators, reg.validator)
	}
	return validators
}

// Process hands a decoded message to the processor registered for the topic.
func (r *Registry) Process(topic network.Topic, origin quorum.PeerID, message interface{}) error {
	reg, ok := r.Get(topic)
	if !ok {
		return errors.Errorf("could not process message. Topic (%s) is not registered", topic)
	}

	return reg.processor.Process(topic, origin, message)
}
