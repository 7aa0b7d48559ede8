package challenge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrUnsolved is reported for a challenge that Solve never computed.
var ErrUnsolved = errors.New("challenge not solved")

type Decipherer interface {
	DecipherN(challenge string) (string, error)
	DecipherSignature(challenge string) (string, error)
}

// Provider yields a Decipherer for a player asset.
type Provider interface {
	Load(ctx context.Context, playerURL string) (Decipherer, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, playerURL string) (Decipherer, error)

func (f ProviderFunc) Load(ctx context.Context, playerURL string) (Decipherer, error) {
	return f(ctx, playerURL)
}

type BatchSolver interface {
	AddSig(challenge string)
	AddN(challenge string)
	Solve(ctx context.Context, playerURL string) error
	Sig(challenge string) (string, bool)
	N(challenge string) (string, bool)
	SigErr(challenge string) error
	NErr(challenge string) error
}

const defaultParallelism = 4

type Option func(*ProviderBatchSolver)

// WithParallelism bounds how many signature challenges are replayed at once.
func WithParallelism(n int) Option {
	return func(s *ProviderBatchSolver) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// ProviderBatchSolver collects challenges and solves them against one
// Decipherer. Solve fails only when no provider yields a Decipherer;
// per-challenge failures are kept and reported through SigErr and NErr.
type ProviderBatchSolver struct {
	providers   []Provider
	parallelism int

	mu       sync.Mutex
	sigs     []string
	ns       []string
	seen     map[string]struct{}
	sigOut   map[string]result
	throttle *ThrottleCache
}

type result struct {
	value string
	err   error
}

func NewProviderBatchSolver(provider Provider, opts ...Option) *ProviderBatchSolver {
	return NewBatchSolver([]Provider{provider}, opts...)
}

// NewFallbackProviderBatchSolver tries each provider in order until one
// yields a Decipherer.
func NewFallbackProviderBatchSolver(first Provider, rest ...Provider) *ProviderBatchSolver {
	return NewBatchSolver(append([]Provider{first}, rest...))
}

// NewBatchSolver is NewFallbackProviderBatchSolver with options.
func NewBatchSolver(providers []Provider, opts ...Option) *ProviderBatchSolver {
	s := &ProviderBatchSolver{
		providers:   providers,
		parallelism: defaultParallelism,
		seen:        make(map[string]struct{}),
		sigOut:      make(map[string]result),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ProviderBatchSolver) AddSig(challenge string) {
	s.add(&s.sigs, "s:"+challenge, challenge)
}

func (s *ProviderBatchSolver) AddN(challenge string) {
	s.add(&s.ns, "n:"+challenge, challenge)
}

func (s *ProviderBatchSolver) add(list *[]string, key, challenge string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	*list = append(*list, challenge)
}

func (s *ProviderBatchSolver) Solve(ctx context.Context, playerURL string) error {
	dec, err := s.load(ctx, playerURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	sigs := append([]string(nil), s.sigs...)
	ns := append([]string(nil), s.ns...)
	s.throttle = NewThrottleCache(dec.DecipherN)
	throttle := s.throttle
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, challenge := range sigs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := dec.DecipherSignature(challenge)
			s.mu.Lock()
			s.sigOut[challenge] = result{value: out, err: err}
			s.mu.Unlock()
			return nil
		})
	}
	for _, challenge := range ns {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, _ = throttle.GetOrCompute(challenge)
			return nil
		})
	}
	return g.Wait()
}

func (s *ProviderBatchSolver) load(ctx context.Context, playerURL string) (Decipherer, error) {
	if len(s.providers) == 0 {
		return nil, errors.New("no decipher provider configured")
	}
	var errs []error
	for _, p := range s.providers {
		dec, err := p.Load(ctx, playerURL)
		if err == nil && dec != nil {
			return dec, nil
		}
		if err == nil {
			err = errors.New("provider returned no decipherer")
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 1 {
		return nil, errs[0]
	}
	return nil, fmt.Errorf("all decipher providers failed: %w", errors.Join(errs...))
}

func (s *ProviderBatchSolver) Sig(challenge string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.sigOut[challenge]
	return r.value, ok && r.err == nil
}

func (s *ProviderBatchSolver) SigErr(challenge string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.sigOut[challenge]
	if !ok {
		return ErrUnsolved
	}
	return r.err
}

func (s *ProviderBatchSolver) N(challenge string) (string, bool) {
	v, err, ok := s.lookupN(challenge)
	return v, ok && err == nil
}

func (s *ProviderBatchSolver) NErr(challenge string) error {
	_, err, ok := s.lookupN(challenge)
	if !ok {
		return ErrUnsolved
	}
	return err
}

func (s *ProviderBatchSolver) lookupN(challenge string) (string, error, bool) {
	s.mu.Lock()
	throttle := s.throttle
	s.mu.Unlock()
	if throttle == nil {
		return "", nil, false
	}
	return throttle.Lookup(challenge)
}
