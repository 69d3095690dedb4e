// Package session tracks the state of one user session: the generation
// lifecycle, the saved recipe collection, and captured media that has not
// yet been submitted.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fridgechef/internal/domain"
	"fridgechef/internal/generate"
	"fridgechef/internal/storage"
)

// savedRecipesBlob is the persistence key for the recipe collection. The
// name is kept for compatibility with existing stored data.
const savedRecipesBlob = "GEMINI_RECIPE_SAVED_RECIPES"

// State describes where the generation lifecycle currently is.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reconciler serializes concurrent mutations of session state. At most one
// generation is in flight at a time; each submission gets a token, and only
// a resolution carrying the current token is applied. Stale resolutions,
// from requests the user has since abandoned, are dropped.
type Reconciler struct {
	generator generate.Generator
	blobs     storage.BlobStore
	log       *slog.Logger

	mu           sync.Mutex
	state        State
	token        uint64
	current      *domain.SavedRecipe
	errMsg       string
	saved        []domain.SavedRecipe
	pendingMedia *domain.MediaBlob
}

// New builds a reconciler and loads the saved recipe collection. A missing
// blob means a fresh install and yields an empty collection.
func New(ctx context.Context, generator generate.Generator, blobs storage.BlobStore, log *slog.Logger) (*Reconciler, error) {
	r := &Reconciler{
		generator: generator,
		blobs:     blobs,
		log:       log,
		state:     StateIdle,
	}

	data, err := blobs.Get(ctx, savedRecipesBlob)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to load saved recipes: %w", err)
	}
	if err := json.Unmarshal(data, &r.saved); err != nil {
		return nil, fmt.Errorf("failed to decode saved recipes: %w", err)
	}
	log.Info("loaded saved recipes", "count", len(r.saved))
	return r, nil
}

// State returns the current lifecycle state and, when in a terminal state,
// the displayed recipe or error message.
func (r *Reconciler) State() (State, *domain.SavedRecipe, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.current, r.errMsg
}

// Submit registers a new generation attempt and returns its token. A second
// submission while one is in flight is rejected.
func (r *Reconciler) Submit() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateGenerating {
		return 0, domain.ErrGenerationInFlight
	}

	r.token++
	r.state = StateGenerating
	r.current = nil
	r.errMsg = ""
	return r.token, nil
}

// Resolve records a successful generation. Resolutions carrying a stale
// token are ignored.
func (r *Reconciler) Resolve(token uint64, recipe *domain.Recipe) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.token || r.state != StateGenerating {
		r.log.Debug("ignoring stale generation result", "token", token, "current", r.token)
		return
	}
	r.state = StateSuccess
	r.current = &domain.SavedRecipe{Recipe: *recipe}
	r.pendingMedia = nil
}

// Reject records a failed generation. Rejections carrying a stale token are
// ignored.
func (r *Reconciler) Reject(token uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.token || r.state != StateGenerating {
		r.log.Debug("ignoring stale generation failure", "token", token, "current", r.token)
		return
	}
	r.state = StateFailed
	r.errMsg = err.Error()
}

// Cancel abandons the in-flight generation and returns the session to idle.
// A later resolution for the abandoned request will carry a stale token and
// be dropped.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateGenerating {
		return
	}
	r.token++
	r.state = StateIdle
}

// Generate runs the full submit/call/resolve cycle against the configured
// backend and returns the resulting recipe.
func (r *Reconciler) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.Recipe, error) {
	token, err := r.Submit()
	if err != nil {
		return nil, err
	}

	recipe, err := r.generator.GenerateRecipe(ctx, req)
	if err != nil {
		r.Reject(token, err)
		return nil, err
	}
	r.Resolve(token, recipe)
	return recipe, nil
}

// Saved returns a copy of the saved recipe collection.
func (r *Reconciler) Saved() []domain.SavedRecipe {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SavedRecipe, len(r.saved))
	copy(out, r.saved)
	return out
}

// LoadSaved displays a recipe from the collection, replacing whatever the
// session currently shows.
func (r *Reconciler) LoadSaved(name string) (*domain.SavedRecipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.saved {
		if r.saved[i].RecipeName == name {
			recipe := r.saved[i]
			r.state = StateSuccess
			r.current = &recipe
			r.errMsg = ""
			return &recipe, nil
		}
	}
	return nil, domain.ErrRecipeNotFound
}

// Save adds the recipe to the collection and persists it. Saving a recipe
// whose name is already in the collection is a silent no-op. The in-memory
// collection is only updated once the write has succeeded.
func (r *Reconciler) Save(ctx context.Context, recipe domain.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.saved {
		if r.saved[i].RecipeName == recipe.RecipeName {
			return nil
		}
	}

	next := make([]domain.SavedRecipe, len(r.saved), len(r.saved)+1)
	copy(next, r.saved)
	next = append(next, domain.SavedRecipe{Recipe: recipe})

	if err := r.persist(ctx, next); err != nil {
		return err
	}
	r.saved = next
	r.log.Info("saved recipe", "name", recipe.RecipeName)
	return nil
}

// Delete removes the named recipe from the collection and persists the
// change.
func (r *Reconciler) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.saved {
		if r.saved[i].RecipeName == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrRecipeNotFound
	}

	next := make([]domain.SavedRecipe, 0, len(r.saved)-1)
	next = append(next, r.saved[:idx]...)
	next = append(next, r.saved[idx+1:]...)

	if err := r.persist(ctx, next); err != nil {
		return err
	}
	r.saved = next
	return nil
}

// Rate sets the user rating on a saved recipe. The update is persisted and,
// when the rated recipe is the one currently displayed, reflected there too.
func (r *Reconciler) Rate(ctx context.Context, name string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.saved {
		if r.saved[i].RecipeName == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrRecipeNotFound
	}

	next := make([]domain.SavedRecipe, len(r.saved))
	copy(next, r.saved)
	next[idx].UserRating = rating

	if err := r.persist(ctx, next); err != nil {
		return err
	}
	r.saved = next
	if r.current != nil && r.current.RecipeName == name {
		updated := next[idx]
		r.current = &updated
	}
	return nil
}

// SetPendingMedia stashes a captured blob for the next generation request.
// It replaces any previously captured media.
func (r *Reconciler) SetPendingMedia(media *domain.MediaBlob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingMedia = media
}

// PendingMedia returns the stashed captured blob, if any.
func (r *Reconciler) PendingMedia() *domain.MediaBlob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingMedia
}

// ClearPendingMedia discards the stashed captured blob.
func (r *Reconciler) ClearPendingMedia() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingMedia = nil
}

// ClearError dismisses a displayed failure and returns the session to idle.
// It has no effect in any other state.
func (r *Reconciler) ClearError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateFailed {
		r.state = StateIdle
		r.errMsg = ""
	}
}

// persist writes the collection. Caller holds the lock.
func (r *Reconciler) persist(ctx context.Context, recipes []domain.SavedRecipe) error {
	data, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("failed to encode saved recipes: %w", err)
	}
	if err := r.blobs.Set(ctx, savedRecipesBlob, data); err != nil {
		return fmt.Errorf("failed to persist saved recipes: %w", err)
	}
	return nil
}
