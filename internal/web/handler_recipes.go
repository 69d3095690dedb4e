package web

import (
	"encoding/json"
	"net/http"

	"fridgechef/internal/domain"
	"fridgechef/internal/share"
)

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reconciler.Saved())
}

func (s *Server) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	var recipe domain.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		http.Error(w, "invalid recipe body", http.StatusBadRequest)
		return
	}
	if recipe.RecipeName == "" {
		http.Error(w, "recipe name required", http.StatusBadRequest)
		return
	}

	if err := s.reconciler.Save(r.Context(), recipe); err != nil {
		s.writeError(w, err)
		s.logger.Error("save recipe failed", "name", recipe.RecipeName, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.reconciler.Delete(r.Context(), name); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.reconciler.LoadSaved(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleRateRecipe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid rating body", http.StatusBadRequest)
		return
	}

	name := r.PathValue("name")
	if err := s.reconciler.Rate(r.Context(), name, body.Rating); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleShareRecipe renders the share text without changing what the
// session currently displays.
func (s *Server) handleShareRecipe(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	for _, saved := range s.reconciler.Saved() {
		if saved.RecipeName == name {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if _, err := w.Write([]byte(share.Text(saved.Recipe))); err != nil {
				s.logger.Error("write share text failed", "error", err)
			}
			return
		}
	}
	s.writeError(w, domain.ErrRecipeNotFound)
}
