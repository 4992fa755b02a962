package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/crisislink/crisislink/server/auth"
	"github.com/crisislink/crisislink/server/auth/key"
	"github.com/crisislink/crisislink/server/disclosure"
	"github.com/crisislink/crisislink/server/intake"
	"github.com/crisislink/crisislink/server/models"
	"github.com/crisislink/crisislink/server/qr"
	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

const AUTH_TOKEN_TTL = 24 * time.Hour

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type stepValidationRequest struct {
	Step    int                `json:"step"`
	Profile intake.ProfileForm `json:"profile"`
}

type claimRequest struct {
	SessionToken string `json:"session_token"`
	Location     string `json:"location"`
}

// ---------------------------------------------------------------------------------//
// Account handlers
// --------------------------------------------------------------------------------//

func createUser(rw http.ResponseWriter, r *http.Request) {
	data := models.User{}
	decoder := json.NewDecoder(r.Body)

	err := decoder.Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	// The very first account bootstraps the deployment & gets the admin role
	roleName := models.BASIC_USER_ROLE
	anyUserExists, err := models.AtLeastOneUserExists()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if !anyUserExists {
		roleName = models.ADMIN_USER_ROLE
	}

	role, err := models.FindRole(roleName)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}
	data.RoleID = role.ID

	err = models.CreateUser(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func logIn(rw http.ResponseWriter, r *http.Request) {
	data := make(map[string]string)
	decoder := json.NewDecoder(r.Body)
	decoder.Decode(&data)

	passwordHash, err := models.FindUserPassword(data["email"])
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if !auth.CheckPasswordHash(data["password"], passwordHash) {
		writeResponse(rw, ResponsePayload{Errors: []string{"email/password is invalid"}}, http.StatusUnauthorized)
		return
	}

	user, err := models.FindUserBy("email", data["email"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	isAdmin, err := user.IsAdmin()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	token, err := auth.EncodeJWT(auth.CrisisLinkTokenClaims{
		Username: user.Username,
		IsAdmin:  isAdmin,
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(AUTH_TOKEN_TTL).Unix(),
		},
	}, authKeyPair)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{
		Success: true,
		Data:    map[string]interface{}{"token": token, "user_id": user.ID, "username": user.Username},
	})
}

func updateAccount(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var errs []string
	data := make(map[string]interface{})

	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	removeUnknownFields(data, map[string]bool{"email": true, "password": true})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	if data["email"] != nil && validate.Var(fmt.Sprintf("%v", data["email"]), "email") != nil {
		errs = append(errs, "email is invalid")
	}

	if data["password"] != nil {
		password := fmt.Sprintf("%v", data["password"])
		if validate.Var(password, "password") != nil {
			errs = append(errs, "password cannot be empty or contain spaces")
		}
		data["password"] = password
	}

	if len(errs) > 0 {
		writeResponse(rw, ResponsePayload{Errors: errs}, http.StatusBadRequest)
		return
	}

	user, err := models.FindUserBy("id", vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"user not found"}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	err = user.Update(data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func deleteAccount(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := models.DeleteUser(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func jwks(rw http.ResponseWriter, r *http.Request) {
	jwkKey, err := authKeyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(jwkKey))
}

// ---------------------------------------------------------------------------------//
// Profile handlers
// --------------------------------------------------------------------------------//

func findProfile(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	profile, err := models.FindProfileByUserID(vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"profile not found"}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	contacts, err := models.ContactsByPriority(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{
		Success: true,
		Data:    map[string]interface{}{"profile": profile, "contacts": contacts},
	})
}

func createProfile(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	exists, err := models.ProfileExists(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}
	if exists {
		writeResponse(rw, ResponsePayload{Errors: []string{"profile already exists"}}, http.StatusBadRequest)
		return
	}

	form := intake.ProfileForm{}
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	result := intake.ValidateComplete(&form)
	if !result.Valid {
		writeResponse(rw, ResponsePayload{Errors: []string{"profile is invalid"}, Data: result.Errors}, http.StatusBadRequest)
		return
	}

	user, err := models.FindUserBy("id", vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	profile, contacts := intake.Normalize(&form)
	profile.UserID = user.ID
	profile.EmergencyURL = qr.EmergencyURL(serverConfig.CrisisLink.EmergencyURLBase, user.Username)

	if err := models.CreateProfile(profile, contacts); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: profile})
}

func updateProfile(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	form := intake.ProfileForm{}
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	result := intake.ValidateComplete(&form)
	if !result.Valid {
		writeResponse(rw, ResponsePayload{Errors: []string{"profile is invalid"}, Data: result.Errors}, http.StatusBadRequest)
		return
	}

	userID, err := parseUserID(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	profile, contacts := intake.Normalize(&form)
	err = models.UpdateProfile(userID, profile, contacts)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"profile not found"}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: profile})
}

// validateProfileStep lets the intake wizard check a single step (or the
// whole form, when step is 0) without persisting anything.
func validateProfileStep(rw http.ResponseWriter, r *http.Request) {
	request := stepValidationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	var result intake.Result
	if request.Step == 0 {
		result = intake.ValidateComplete(&request.Profile)
	} else {
		result = intake.ValidateStep(request.Step, &request.Profile)
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: result})
}

// previewProfile renders the owner's profile exactly as an anonymous
// visitor would see it on the public page.
func previewProfile(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := models.FindUserBy("id", vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	profile, err := models.FindProfileByUserID(user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"profile not found"}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	contacts, err := models.ContactsByPriority(user.ID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	viewer := disclosure.ViewerContext{
		Role:            disclosure.RolePublic,
		TargetUsername:  user.Username,
		AccessTimestamp: time.Now(),
	}

	disclosed, err := disclosure.Project(profile, contacts, viewer)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"disclosure policy violation"}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: disclosed})
}

func profileQRCode(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	profile, err := models.FindProfileByUserID(vars["uid"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"profile not found"}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	png, err := qr.EncodePNG(profile.EmergencyURL, qr.DEFAULT_SIZE)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "image/png")
	rw.Write(png)
}

func dashboard(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page := pageFromQuery(r)

	profile, err := models.FindProfileByUserID(vars["uid"])
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	contacts, err := models.ContactsByPriority(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	events, paging, err := models.AccessEventsForUser(vars["uid"], page)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	total, err := models.CountAccessEventsForUser(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{
		Success: true,
		Data: map[string]interface{}{
			"profile":             profile,
			"contacts":            contacts,
			"access_events":       events,
			"paging":              paging,
			"total_access_events": total,
		},
	})
}

func deleteContact(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	userID, err := parseUserID(vars["uid"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusBadRequest)
		return
	}

	err = models.DeleteContact(userID, vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"contact not found"}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

// ---------------------------------------------------------------------------------//
// Emergency access handlers
// --------------------------------------------------------------------------------//

func emergencyProfile(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	profile, err := models.FindProfileByUsername(vars["username"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{"no profile for this link"}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	contacts, err := models.ContactsByPriority(profile.UserID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	accessType := models.URL_ACCESS
	if r.URL.Query().Get("src") == "qr" {
		accessType = models.QR_ACCESS
	}

	session := sessionRegistry.Open(vars["username"], profile.UserID, accessType)

	disclosed, err := disclosure.Project(profile, contacts, session.Viewer())
	if err != nil {
		// Unknown field group or viewer role. Disclose nothing.
		writeResponse(rw, ResponsePayload{Errors: []string{"disclosure policy violation"}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{
		Success: true,
		Data: map[string]interface{}{
			"session_token": session.Token,
			"profile":       disclosed,
			"all_hidden":    disclosed.AllHidden(),
		},
	})
}

func claimEmergencyAccess(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	request := claimRequest{}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	session, err := sessionRegistry.Find(request.SessionToken)
	if errors.Is(err, disclosure.ErrSessionNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if errors.Is(err, disclosure.ErrSessionClosed) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusGone)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if session.Viewer().TargetUsername != vars["username"] {
		writeResponse(rw, ResponsePayload{Errors: []string{"session does not match this profile"}}, http.StatusBadRequest)
		return
	}

	err = session.ClaimProfessional(clientIP(r), request.Location)
	if errors.Is(err, disclosure.ErrAlreadyClaimed) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	profile, err := models.FindProfileByUsername(vars["username"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	contacts, err := models.ContactsByPriority(profile.UserID)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	disclosed, err := disclosure.Project(profile, contacts, session.Viewer())
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"disclosure policy violation"}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: disclosed})
}

// ---------------------------------------------------------------------------------//
// Reference catalog handlers
// --------------------------------------------------------------------------------//

func searchReference(rw http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	results, err := models.SearchReferenceTerms(query, category)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: results})
}
