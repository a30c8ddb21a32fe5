package app

import "errors"

// Error texts are shown to end users verbatim, so they are in Turkish.
var (
	ErrFirstNameRequired = errors.New("Ad alanı zorunludur")
	ErrLastNameRequired  = errors.New("Soyad alanı zorunludur")
	ErrEmailRequired     = errors.New("Email alanı zorunludur")
	ErrPasswordRequired  = errors.New("Şifre alanı zorunludur")
	ErrInvalidEmail      = errors.New("Lütfen geçerli bir email adresi giriniz")
	ErrPasswordTooShort  = errors.New("Şifre en az 6 karakter olmalıdır")
	ErrEmailTaken        = errors.New("Bu email adresi zaten kullanılıyor")

	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses do not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("Geçersiz email veya şifre")

	ErrLoginRequired = errors.New("Bu işlem için giriş yapmanız gerekiyor")
	ErrInvalidToken  = errors.New("Geçersiz token")
	ErrUserNotFound  = errors.New("Geçersiz token, kullanıcı bulunamadı")

	ErrCommentFieldsRequired = errors.New("Lütfen tüm alanları doldurun")
	ErrInvalidRating         = errors.New("Puan 1 ile 5 arasında olmalıdır")
)

// IsValidation reports whether err is caused by bad client input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrFirstNameRequired, ErrLastNameRequired, ErrEmailRequired, ErrPasswordRequired,
		ErrInvalidEmail, ErrPasswordTooShort, ErrEmailTaken,
		ErrCommentFieldsRequired, ErrInvalidRating,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
