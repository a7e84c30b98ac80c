// Package signing runs the three-step NDA signing workflow for case
// managers. Each attempt is an in-memory session holding a small state
// machine; nothing is persisted until the final step succeeds, so every step
// before it can be retried or abandoned without cleanup.
package signing

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anggasct/fluo"
	"go.uber.org/zap"

	"caseline/internal/config"
	"caseline/internal/engine"
	"caseline/internal/repo"
)

// Signing states and events.
const (
	stateInitiated         = "initiated"
	stateAwaitingSignature = "awaiting_signature"
	statePreviewReady      = "preview_ready"
	stateSigned            = "signed"

	eventContinueToSign    = "continue_to_sign"
	eventGeneratePreview   = "generate_preview"
	eventFinalizeSignature = "finalize_signature"
)

// counterSignerName is stamped onto every finalized NDA on behalf of the
// firm.
const counterSignerName = "Liz"

// Workflow coordinates NDA preview and signature for case managers.
type Workflow struct {
	Repo      repo.Repo
	Stamper   Stamper
	Flattener Flattener
	Sessions  *SessionCache

	TemplatePath  string
	SignaturePath string
	ArtifactDir   string

	Log *zap.Logger
	Now func() time.Time
}

func NewWorkflow(r repo.Repo, cfg *config.Config, stamper Stamper, flattener Flattener, log *zap.Logger) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	ttl := 10 * time.Minute
	templatePath, signaturePath, artifactDir := "", "", ".caseline/nda"
	if cfg != nil {
		ttl = time.Duration(cfg.Signing.SessionTTLMin) * time.Minute
		templatePath = cfg.Signing.TemplatePath
		signaturePath = cfg.Signing.SignaturePath
		artifactDir = cfg.Signing.ArtifactDir
	}
	now := time.Now
	return &Workflow{
		Repo:          r,
		Stamper:       stamper,
		Flattener:     flattener,
		Sessions:      NewSessionCache(ttl, now),
		TemplatePath:  templatePath,
		SignaturePath: signaturePath,
		ArtifactDir:   artifactDir,
		Log:           log,
		Now:           now,
	}
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// PreviewInfo describes a generated, not yet signed, NDA artifact.
type PreviewInfo struct {
	Pin          string `json:"pin"`
	ArtifactPath string `json:"artifact_path"`
	ExpiresAt    string `json:"expires_at"`
}

// SignResult describes a finalized NDA.
type SignResult struct {
	Pin         string `json:"pin"`
	PdfPath     string `json:"pdf_path"`
	ContentHash string `json:"content_hash"`
	SignedAt    string `json:"signed_at"`
}

// newMachine builds the per-session state machine. Transition actions do the
// document work, so a failed action leaves the machine in its previous state
// and the step can simply be retried.
func (w *Workflow) newMachine(s *Session, template []byte) fluo.Machine {
	def := fluo.NewMachine().
		State(stateInitiated).Initial().
		To(stateAwaitingSignature).On(eventContinueToSign).When(func(ctx fluo.Context) bool {
			p, ok := ctx.GetEventData().(SignaturePayload)
			return ok && p.validate() == nil
		}).
		State(stateAwaitingSignature).
		To(statePreviewReady).On(eventGeneratePreview).Do(func(ctx fluo.Context) error {
			return w.stampPreview(ctx, s, template)
		}).
		State(statePreviewReady).
		To(stateSigned).On(eventFinalizeSignature).Do(func(ctx fluo.Context) error {
			return w.finalize(ctx, s)
		}).
		State(stateSigned).Final().
		Build()
	return def.CreateInstance()
}

// stampPreview stamps both the manager's signature and the firm's
// counter-signature onto the template, so the document the manager reviews is
// exactly the one that gets finalized.
func (w *Workflow) stampPreview(ctx context.Context, s *Session, template []byte) error {
	stamped, err := w.Stamper.Stamp(ctx, template, s.Payload)
	if err != nil {
		return fmt.Errorf("stamp preview: %w", err)
	}
	counterSig, err := os.ReadFile(w.SignaturePath)
	if err != nil {
		return fmt.Errorf("read counter-signature: %w", err)
	}
	stamped, err = w.Stamper.Stamp(ctx, stamped, SignaturePayload{
		Name:      counterSignerName,
		Signature: base64.StdEncoding.EncodeToString(counterSig),
		Date:      w.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("counter-sign: %w", err)
	}
	if err := os.MkdirAll(w.ArtifactDir, 0o755); err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}
	path := filepath.Join(w.ArtifactDir, fmt.Sprintf("caseManagersNda%s.pdf", s.Pin))
	if err := os.WriteFile(path, stamped, 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	s.ArtifactPath = path
	return nil
}

// finalize flattens, hashes and persists the already counter-signed preview.
// It runs as a transition action; any error aborts the state change and the
// session remains previewed so the caller can retry.
func (w *Workflow) finalize(ctx context.Context, s *Session) error {
	doc, err := os.ReadFile(s.ArtifactPath)
	if err != nil {
		return fmt.Errorf("read preview: %w", err)
	}
	nowStr := w.now().UTC().Format(time.RFC3339)
	flat, err := w.Flattener.Flatten(ctx, doc)
	if err != nil {
		return fmt.Errorf("flatten: %w", err)
	}
	hash := ContentHash(flat)
	signedPath := filepath.Join(w.ArtifactDir, fmt.Sprintf("signedCaseManagersNda%s.pdf", s.Pin))
	if err := os.WriteFile(signedPath, flat, 0o644); err != nil {
		return fmt.Errorf("write signed artifact: %w", err)
	}
	if err := w.Repo.MarkNdaSigned(ctx, s.Pin, nowStr, signedPath, hash); err != nil {
		return fmt.Errorf("persist signed nda: %w", err)
	}
	s.ArtifactPath = signedPath
	s.ContentHash = hash
	return nil
}

func (w *Workflow) manager(ctx context.Context, pin string) (name string, err error) {
	m, err := w.Repo.GetManager(ctx, pin)
	if err == repo.ErrNotFound {
		return "", &engine.NotFoundError{Msg: fmt.Sprintf("case manager %s not found", pin)}
	}
	if err != nil {
		return "", err
	}
	if m.NdaSigned {
		return "", &engine.ValidationError{Msg: fmt.Sprintf("case manager %s has already signed the NDA", pin)}
	}
	return m.Name, nil
}

// ContinueToSign validates that a manager may start signing. It holds no
// state, so clients can call it any number of times.
func (w *Workflow) ContinueToSign(ctx context.Context, pin string) error {
	_, err := w.manager(ctx, pin)
	return err
}

// GeneratePreview stamps the manager's signature and the firm's
// counter-signature onto the NDA template and opens a signing session. An
// existing session for the pin is replaced.
// Acknowledgment and signature problems surface as distinct validation
// messages so the client can point at the right form field.
func (w *Workflow) GeneratePreview(ctx context.Context, pin string, payload SignaturePayload, acknowledged bool) (PreviewInfo, error) {
	name, err := w.manager(ctx, pin)
	if err != nil {
		return PreviewInfo{}, err
	}
	if !acknowledged {
		return PreviewInfo{}, &engine.ValidationError{Msg: "terms acknowledgment is required"}
	}
	if err := payload.validate(); err != nil {
		return PreviewInfo{}, &engine.ValidationError{Msg: err.Error()}
	}
	template, err := os.ReadFile(w.TemplatePath)
	if err != nil {
		return PreviewInfo{}, &engine.DependencyError{Msg: "nda template unavailable", Err: err}
	}

	s := &Session{Pin: pin, ManagerName: name, Payload: payload}
	m := w.newMachine(s, template)
	s.Machine = m
	if err := m.Start(); err != nil {
		return PreviewInfo{}, err
	}
	if r := m.SendEventWithContext(ctx, eventContinueToSign, payload); !r.Success() {
		return PreviewInfo{}, &engine.ValidationError{Msg: "signature payload rejected"}
	}
	r := m.SendEventWithContext(ctx, eventGeneratePreview, payload)
	if r.Error != nil {
		return PreviewInfo{}, &engine.DependencyError{Msg: "preview generation failed", Err: r.Error}
	}
	if !r.StateChanged {
		return PreviewInfo{}, &engine.ValidationError{Msg: "preview not available in current signing state"}
	}
	w.Sessions.Put(s)
	w.Log.Info("nda preview generated", zap.String("pin", pin), zap.String("path", s.ArtifactPath))
	return PreviewInfo{
		Pin:          pin,
		ArtifactPath: s.ArtifactPath,
		ExpiresAt:    s.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Preview returns the counter-signed, not yet flattened document for an
// active session.
func (w *Workflow) Preview(pin string) ([]byte, error) {
	s, ok := w.Sessions.Get(pin)
	if !ok {
		return nil, &engine.NotFoundError{Msg: fmt.Sprintf("no active signing session for %s", pin)}
	}
	data, err := os.ReadFile(s.ArtifactPath)
	if err != nil {
		return nil, &engine.DependencyError{Msg: "preview artifact unavailable", Err: err}
	}
	return data, nil
}

// FinalizeSign flattens the previewed document, records
// the signature on the manager row and closes the session. The session is
// only discarded after everything succeeded, so a failed attempt can be
// retried as long as the session lives.
func (w *Workflow) FinalizeSign(ctx context.Context, pin string, confirmed bool) (SignResult, error) {
	if !confirmed {
		return SignResult{}, &engine.ValidationError{Msg: "signature confirmation is required"}
	}
	s, ok := w.Sessions.Get(pin)
	if !ok {
		return SignResult{}, &engine.NotFoundError{Msg: fmt.Sprintf("no active signing session for %s", pin)}
	}
	r := s.Machine.SendEventWithContext(ctx, eventFinalizeSignature, nil)
	if r.Error != nil {
		return SignResult{}, &engine.DependencyError{Msg: "signature finalization failed", Err: r.Error}
	}
	if !r.StateChanged {
		return SignResult{}, &engine.ValidationError{Msg: "signing session is not ready to finalize"}
	}
	w.Sessions.Delete(pin)
	w.Log.Info("nda signed", zap.String("pin", pin), zap.String("path", s.ArtifactPath))
	return SignResult{
		Pin:         pin,
		PdfPath:     s.ArtifactPath,
		ContentHash: s.ContentHash,
		SignedAt:    w.now().UTC().Format(time.RFC3339),
	}, nil
}

// SignedNda returns the finalized document for a manager who has signed.
func (w *Workflow) SignedNda(ctx context.Context, pin string) ([]byte, error) {
	m, err := w.Repo.GetManager(ctx, pin)
	if err == repo.ErrNotFound {
		return nil, &engine.NotFoundError{Msg: fmt.Sprintf("case manager %s not found", pin)}
	}
	if err != nil {
		return nil, err
	}
	if !m.NdaSigned || m.NdaPdfPath == nil {
		return nil, &engine.NotFoundError{Msg: fmt.Sprintf("case manager %s has not signed the NDA", pin)}
	}
	data, err := os.ReadFile(*m.NdaPdfPath)
	if err != nil {
		return nil, &engine.DependencyError{Msg: "signed artifact unavailable", Err: err}
	}
	if m.NdaContentHash != nil && ContentHash(data) != *m.NdaContentHash {
		return nil, &engine.DependencyError{Msg: "signed artifact hash mismatch"}
	}
	return data, nil
}
