package message

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sigil/internal/domain"
	"sigil/internal/envelope"
)

// ErrNoTransport indicates the service was built without a Transport.
var ErrNoTransport = errors.New("no transport configured")

// Service orchestrates sealing and opening on top of the identity and
// session services.
//
// High-level flow:
//   - Seal: load identity and relationship, encrypt then sign, record the
//     message as locally originated.
//   - Send: seal, deliver to the connected peer, record.
//   - Receive: fetch envelopes, open them concurrently, record what opened,
//     then ack every envelope that reached a terminal outcome.
type Service struct {
	identities domain.IdentityService
	sessions   domain.SessionService
	history    domain.MessageStore
	transport  domain.Transport
	sealer     *envelope.LimitedSealer
	opener     *envelope.Opener
	workers    int
	log        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTransport sets the transport used by SendMessage and ReceiveMessages.
func WithTransport(t domain.Transport) Option { return func(s *Service) { s.transport = t } }

// WithSealer replaces the default unthrottled sealer.
func WithSealer(l *envelope.LimitedSealer) Option { return func(s *Service) { s.sealer = l } }

// WithWorkers bounds the number of envelopes opened concurrently.
func WithWorkers(n int) Option { return func(s *Service) { s.workers = n } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// New constructs a Message Service.
func New(
	identities domain.IdentityService,
	sessions domain.SessionService,
	history domain.MessageStore,
	opts ...Option,
) *Service {
	s := &Service{
		identities: identities,
		sessions:   sessions,
		history:    history,
		sealer:     envelope.NewLimitedSealer(envelope.NewSealer(), 0, 1),
		opener:     envelope.NewOpener(),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SealMessage seals text for the connected peer and records it in history.
// The envelope is returned for out-of-band delivery.
func (s *Service) SealMessage(
	ctx context.Context,
	passphrase string,
	text string,
) (domain.SealedEnvelope, error) {
	env, id, _, err := s.seal(ctx, passphrase, text)
	if err != nil {
		return domain.SealedEnvelope{}, err
	}
	if err := s.record(ctx, sentMessage(env, id, text)); err != nil {
		return env, err
	}
	return env, nil
}

// SendMessage seals text and delivers it to the connected peer. History is
// written only after the transport accepted the envelope.
func (s *Service) SendMessage(
	ctx context.Context,
	passphrase string,
	text string,
) (domain.SealedEnvelope, error) {
	if s.transport == nil {
		return domain.SealedEnvelope{}, ErrNoTransport
	}
	env, id, rel, err := s.seal(ctx, passphrase, text)
	if err != nil {
		return domain.SealedEnvelope{}, err
	}
	if err := s.transport.Deliver(ctx, rel.Peer.ID, env); err != nil {
		return domain.SealedEnvelope{}, fmt.Errorf("deliver to %q: %w", rel.Peer.ID, err)
	}
	s.log.Debug("envelope delivered",
		zap.String("envelope_id", env.ID),
		zap.String("peer", rel.Peer.ID.String()),
	)
	if err := s.record(ctx, sentMessage(env, id, text)); err != nil {
		return env, err
	}
	return env, nil
}

// OpenEnvelope opens one envelope from the connected peer.
//
// A rejected envelope is a normal outcome: the Delivery carries Rejected and
// the cause, and the returned error is nil. The error is non-nil only when
// the identity, relationship or history cannot be accessed.
func (s *Service) OpenEnvelope(
	ctx context.Context,
	passphrase string,
	env domain.SealedEnvelope,
) (domain.Delivery, error) {
	rel, err := s.sessions.Current(passphrase)
	if err != nil {
		return domain.Delivery{}, err
	}
	if err := checkSender(env, rel.Peer); err != nil {
		return s.rejected(env, err), nil
	}
	text, err := s.opener.Open(env, rel.Peer, rel.Key)
	if err != nil {
		if domain.IsRejection(err) {
			return s.rejected(env, err), nil
		}
		return domain.Delivery{}, err
	}
	d := opened(env, text)
	if err := s.record(ctx, d.Message); err != nil {
		return d, err
	}
	return d, nil
}

// ReceiveMessages fetches up to limit envelopes addressed to the local
// identity and opens them. Every fetched envelope yields exactly one Delivery,
// in fetch order. Envelopes are acked once their outcome is final, so a
// failure to record history leaves the remainder queued.
func (s *Service) ReceiveMessages(
	ctx context.Context,
	passphrase string,
	limit int,
) ([]domain.Delivery, error) {
	if s.transport == nil {
		return nil, ErrNoTransport
	}
	id, err := s.identities.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	rel, err := s.sessions.Current(passphrase)
	if err != nil {
		return nil, err
	}
	envs, err := s.transport.Fetch(ctx, id.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if len(envs) == 0 {
		return nil, nil
	}

	// Only envelopes claiming the connected peer are worth verifying.
	candidates := make([]domain.SealedEnvelope, 0, len(envs))
	for _, env := range envs {
		if checkSender(env, rel.Peer) == nil {
			candidates = append(candidates, env)
		}
	}
	results, err := envelope.OpenAll(ctx, s.opener, candidates, rel.Peer, rel.Key, s.workers)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Delivery, 0, len(envs))
	processed, next := 0, 0
	for _, env := range envs {
		var d domain.Delivery
		if err := checkSender(env, rel.Peer); err != nil {
			d = s.rejected(env, err)
		} else {
			r := results[next]
			next++
			switch {
			case r.Err == nil:
				d = opened(env, r.Text)
				if err := s.record(ctx, d.Message); err != nil {
					return out, s.ack(ctx, id.ID, processed, err)
				}
			case domain.IsRejection(r.Err):
				d = s.rejected(env, r.Err)
			default:
				return out, s.ack(ctx, id.ID, processed, r.Err)
			}
		}
		out = append(out, d)
		processed++
	}
	return out, s.ack(ctx, id.ID, processed, nil)
}

// History returns up to limit recorded messages, oldest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.PlainMessage, error) {
	return s.history.ListMessages(ctx, limit)
}

func (s *Service) seal(
	ctx context.Context,
	passphrase string,
	text string,
) (domain.SealedEnvelope, domain.Identity, domain.Relationship, error) {
	id, err := s.identities.LoadIdentity(passphrase)
	if err != nil {
		return domain.SealedEnvelope{}, domain.Identity{}, domain.Relationship{}, err
	}
	rel, err := s.sessions.Current(passphrase)
	if err != nil {
		return domain.SealedEnvelope{}, domain.Identity{}, domain.Relationship{}, err
	}
	env, err := s.sealer.Seal(ctx, text, id, rel.Key)
	if err != nil {
		return domain.SealedEnvelope{}, domain.Identity{}, domain.Relationship{}, err
	}
	return env, id, rel, nil
}

// ack acknowledges n envelopes and returns cause, or the ack failure when
// cause is nil. Zero is never acked.
func (s *Service) ack(ctx context.Context, me domain.UserID, n int, cause error) error {
	if n > 0 {
		if err := s.transport.Ack(ctx, me, n); err != nil && cause == nil {
			return fmt.Errorf("ack %d messages: %w", n, err)
		}
	}
	return cause
}

func (s *Service) record(ctx context.Context, msg domain.PlainMessage) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("record message %q: %w", msg.ID, err)
	}
	return nil
}

func (s *Service) rejected(env domain.SealedEnvelope, err error) domain.Delivery {
	s.log.Warn("envelope rejected",
		zap.String("envelope_id", env.ID),
		zap.String("sender", env.SenderID.String()),
		zap.Error(err),
	)
	return domain.Delivery{
		EnvelopeID: env.ID,
		SenderID:   env.SenderID,
		Outcome:    domain.Rejected,
		Err:        err,
	}
}

func checkSender(env domain.SealedEnvelope, peer domain.PeerIdentity) error {
	if env.SenderID != peer.ID {
		return domain.E(domain.ErrSignatureVerification, "open",
			fmt.Errorf("sender %q is not the connected peer", env.SenderID))
	}
	return nil
}

func opened(env domain.SealedEnvelope, text string) domain.Delivery {
	return domain.Delivery{
		EnvelopeID: env.ID,
		SenderID:   env.SenderID,
		Outcome:    domain.Opened,
		Message: domain.PlainMessage{
			ID:        env.ID,
			SenderID:  env.SenderID,
			Text:      text,
			Timestamp: env.Timestamp,
		},
	}
}

func sentMessage(env domain.SealedEnvelope, id domain.Identity, text string) domain.PlainMessage {
	return domain.PlainMessage{
		ID:            env.ID,
		SenderID:      id.ID,
		Text:          text,
		Timestamp:     env.Timestamp,
		IsLocalOrigin: true,
	}
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
