// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

// Package i18n resolves user-facing failure messages for the supported
// dashboard languages. The negotiated language is remembered in the keystore
// so a returning user sees localized text before any backend contact.
package i18n

import (
	"encoding/json"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/domara/domara-go/internal/keystore"
	"github.com/domara/domara-go/internal/platform/apperr"
	"github.com/domara/domara-go/internal/platform/constants"
)

// supported lists the dashboard languages in priority order. The first entry
// is the fallback when negotiation fails.
var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.Vietnamese,
}

var matcher = language.NewMatcher(supported)

// messages maps apperr codes to localized user-facing text per language.
// Unlisted codes fall back to [apperr.AppError.Message] untranslated.
var messages = map[language.Tag]map[string]string{
	language.English: {
		apperr.CodeInvalidCredentials: "Email or password is incorrect.",
		apperr.CodeForbidden:          "You do not have access to this resource.",
		apperr.CodeRateLimited:        "Too many attempts. Please wait and try again.",
		apperr.CodeServerError:        "Something went wrong on our side. Please try again.",
		apperr.CodeNetwork:            "Cannot reach Domara. Check your connection.",
		apperr.CodeSessionExpired:     "Your session has expired. Please sign in again.",
	},
	language.Spanish: {
		apperr.CodeInvalidCredentials: "El correo o la contraseña son incorrectos.",
		apperr.CodeForbidden:          "No tienes acceso a este recurso.",
		apperr.CodeRateLimited:        "Demasiados intentos. Espera y vuelve a intentarlo.",
		apperr.CodeServerError:        "Algo salió mal de nuestro lado. Inténtalo de nuevo.",
		apperr.CodeNetwork:            "No se puede conectar con Domara. Revisa tu conexión.",
		apperr.CodeSessionExpired:     "Tu sesión ha expirado. Inicia sesión de nuevo.",
	},
	language.French: {
		apperr.CodeInvalidCredentials: "L'adresse e-mail ou le mot de passe est incorrect.",
		apperr.CodeForbidden:          "Vous n'avez pas accès à cette ressource.",
		apperr.CodeRateLimited:        "Trop de tentatives. Veuillez patienter avant de réessayer.",
		apperr.CodeServerError:        "Une erreur est survenue de notre côté. Veuillez réessayer.",
		apperr.CodeNetwork:            "Impossible de joindre Domara. Vérifiez votre connexion.",
		apperr.CodeSessionExpired:     "Votre session a expiré. Veuillez vous reconnecter.",
	},
	language.Vietnamese: {
		apperr.CodeInvalidCredentials: "Email hoặc mật khẩu không đúng.",
		apperr.CodeForbidden:          "Bạn không có quyền truy cập tài nguyên này.",
		apperr.CodeRateLimited:        "Quá nhiều lần thử. Vui lòng đợi rồi thử lại.",
		apperr.CodeServerError:        "Đã xảy ra lỗi phía chúng tôi. Vui lòng thử lại.",
		apperr.CodeNetwork:            "Không thể kết nối tới Domara. Kiểm tra kết nối mạng.",
		apperr.CodeSessionExpired:     "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại.",
	},
}

// Localizer translates failure codes into one negotiated language.
type Localizer struct {
	tag    language.Tag
	store  keystore.Store
	logger *slog.Logger
}

/*
New negotiates the closest supported language and returns a localizer for it.

Description: Preferences are tried in order: the explicit argument, then the
language persisted under the preferredLanguage keystore key. Unparseable or
unsupported preferences negotiate down to English.

Parameters:
  - preferred: BCP 47 tag or Accept-Language style list (may be empty)
  - store: Keystore consulted for, and updated with, the resolved language
  - logger: Structured logger

Returns:
  - *Localizer: Localizer bound to the negotiated language
*/
func New(preferred string, store keystore.Store, logger *slog.Logger) *Localizer {
	localizer := &Localizer{store: store, logger: logger}

	if preferred == "" {
		preferred = localizer.storedPreference()
	}

	tags, _, err := language.ParseAcceptLanguage(preferred)
	if err != nil || len(tags) == 0 {
		tags = []language.Tag{language.English}
	}
	tag, _, _ := matcher.Match(tags...)

	// Match can return a variant of a supported tag; collapse to the base.
	base, _ := tag.Base()
	for _, candidate := range supported {
		if candidateBase, _ := candidate.Base(); candidateBase == base {
			tag = candidate
			break
		}
	}

	localizer.tag = tag
	localizer.persistPreference()

	return localizer
}

// Language returns the negotiated language tag.
func (localizer *Localizer) Language() language.Tag {
	return localizer.tag
}

// Message returns the localized text for an error. Errors without a known
// code, and codes without a translation, fall through to err.Error().
func (localizer *Localizer) Message(err error) string {
	if err == nil {
		return ""
	}

	code := apperr.CodeOf(err)
	if text, ok := messages[localizer.tag][code]; ok {
		return text
	}
	if text, ok := messages[language.English][code]; ok {
		return text
	}
	return err.Error()
}

// storedPreference loads the persisted language preference, if any.
func (localizer *Localizer) storedPreference() string {
	data, ok, err := localizer.store.Get(constants.KeyPreferredLanguage)
	if err != nil || !ok {
		return ""
	}

	var stored string
	if err := json.Unmarshal(data, &stored); err != nil {
		localizer.logger.Warn("i18n_preference_malformed")
		return ""
	}
	return stored
}

// persistPreference remembers the negotiated language for the next start.
func (localizer *Localizer) persistPreference() {
	data, err := json.Marshal(localizer.tag.String())
	if err != nil {
		return
	}
	if err := localizer.store.Set(constants.KeyPreferredLanguage, data); err != nil {
		localizer.logger.Warn("i18n_preference_persist_failed",
			slog.String("error", err.Error()),
		)
	}
}
