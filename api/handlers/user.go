package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/reliefline/disaster-response-api/api"
	"github.com/reliefline/disaster-response-api/config"
	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/models"
)

// tokenTTL is the lifetime of tokens issued at registration
const tokenTTL = 30 * 24 * time.Hour

// User handles reporter registration
type User struct {
	DB   databases.UserDatabase
	Auth *api.Authenticator
}

type registerUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterUserHandler creates a reporting user and returns an access token for it
func (u User) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		config.ErrorStatus("name is required", http.StatusBadRequest, w, errors.New("missing name"))
		return
	}

	user := models.User{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if err := u.DB.InsertOne(r.Context(), user); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	token, err := u.Auth.SignToken(user.ID, tokenTTL)
	if err != nil {
		config.ErrorStatus("failed to create token", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.TokenResponse{Token: token, User: user})
}
