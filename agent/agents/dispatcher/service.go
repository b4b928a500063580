package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
	nodex "github.com/tanpawarit/cargo-dispatch/agent/nodes"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
)

type Config struct {
	ModelTimeout time.Duration `split_words:"true" default:"30s"`
}

// Recorder receives per-turn observations. *metrics.Recorder satisfies it.
type Recorder interface {
	ObserveTurn(outcome string)
	ObserveAction(action string, d time.Duration)
	AddDroppedCalls(n int)
}

type Option func(*Dispatcher)

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// Dispatcher runs one chat turn: normalize, ask the model once, then reply or run one action.
type Dispatcher struct {
	decider  contractx.Decider
	actions  contractx.ActionResolver
	recorder Recorder

	modelTimeout time.Duration

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

func New(
	decider contractx.Decider,
	actions contractx.ActionResolver,
	cfg Config,
	opts ...Option,
) (*Dispatcher, error) {
	if decider == nil {
		return nil, errors.New("decider is required")
	}
	if actions == nil {
		return nil, errors.New("action resolver is required")
	}

	d := &Dispatcher{
		decider:      decider,
		actions:      actions,
		recorder:     noopRecorder{},
		modelTimeout: cfg.ModelTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	graphRunner, err := d.compileHandleChatGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

// HandleChat never mutates req.History; the accumulated history is returned in the response.
func (d *Dispatcher) HandleChat(ctx context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error) {
	out, err := d.graphRunner.Invoke(ctx, nodex.GraphInput{
		Message: req.Message,
		History: req.History,
	})
	if err != nil {
		d.recorder.ObserveTurn("error")
		return contractx.ChatResponse{}, err
	}

	d.recorder.ObserveTurn(string(out.Outcome))
	d.recorder.AddDroppedCalls(out.DroppedCalls)
	if out.Outcome == nodex.OutcomeDispatched {
		d.recorder.ObserveAction(out.Action, out.ActionDuration)
	}

	log.Ctx(ctx).Debug().
		Str("outcome", string(out.Outcome)).
		Str("action", out.Action).
		Int("history_len", len(out.History)).
		Msg("chat turn completed")

	return contractx.ChatResponse{
		Reply:   out.Reply,
		History: out.History,
	}, nil
}

type noopRecorder struct{}

func (noopRecorder) ObserveTurn(string) {}

func (noopRecorder) ObserveAction(string, time.Duration) {}

func (noopRecorder) AddDroppedCalls(int) {}
