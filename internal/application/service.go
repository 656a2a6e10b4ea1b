package application

import (
	"fmt"
	"time"

	"github.com/SARVESHVARADKAR123/chatbox/internal/commanding"
	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/eventing"
	"github.com/SARVESHVARADKAR123/chatbox/internal/repository"
	"github.com/SARVESHVARADKAR123/chatbox/internal/tx"
)

// Options are the behaviour switches of the chat core.
type Options struct {
	// AutoPromotePublic flips a private conversation to public once it has
	// more than two participants.
	AutoPromotePublic bool
	// BroadcastEnabled hands sent messages to the dispatcher. When false the
	// dispatcher is replaced by a no-op.
	BroadcastEnabled bool
	// UsersTable names the relation participants are checked against.
	// Storage consumes it; empty disables the check.
	UsersTable string
}

func DefaultOptions() Options {
	return Options{AutoPromotePublic: true}
}

type Service struct {
	repo repository.Repository
	tx   tx.Transactor
	bus  *commanding.Bus
	opts Options
}

func New(
	repo repository.Repository,
	transactor tx.Transactor,
	dispatcher eventing.Dispatcher,
	opts Options,
) (*Service, error) {
	if dispatcher == nil || !opts.BroadcastEnabled {
		dispatcher = eventing.Nop{}
	}

	bus := commanding.NewBus(
		commanding.Tracing(),
		commanding.Metrics(),
		commanding.Logging(),
	)
	handler := &SendMessageHandler{
		tx:         transactor,
		repo:       repo,
		log:        NewMessageLog(repo),
		dispatcher: dispatcher,
	}
	if err := commanding.Register[SendMessageCommand, *domain.Message](bus, handler); err != nil {
		return nil, fmt.Errorf("failed to register send handler: %w", err)
	}

	return &Service{
		repo: repo,
		tx:   transactor,
		bus:  bus,
		opts: opts,
	}, nil
}

var clock = func() time.Time { return time.Now().UTC() }
