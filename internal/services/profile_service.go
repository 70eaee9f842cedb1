package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"miromiro/internal/apperr"
	"miromiro/internal/identity"
	"miromiro/internal/models"
	"miromiro/internal/repositories"
	"miromiro/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// AvatarBucket is the object-store bucket holding user avatars.
const AvatarBucket = "avatars"

// MaxAvatarSize is the upload size cap, 5 MiB.
const MaxAvatarSize = 5 * 1024 * 1024

// allowedAvatarTypes is the avatar MIME whitelist.
var allowedAvatarTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// ProfileService owns the application profile rows and the avatar objects
// referenced by them.
type ProfileService struct {
	profileRepo repositories.ProfileRepository
	provider    identity.Provider
	store       storage.ObjectStore
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profileRepo repositories.ProfileRepository, provider identity.Provider, store storage.ObjectStore) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		provider:    provider,
		store:       store,
	}
}

// EnsureProfile returns the caller's profile, creating it from the
// authoritative user metadata when absent. Calling it twice returns the same
// row both times and performs exactly one insert.
func (s *ProfileService) EnsureProfile(userID string) (*models.Profile, string, error) {
	existing, err := s.profileRepo.GetByID(userID)
	if err == nil {
		return existing, "Profile already exists", nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", apperr.Provider(fiber.StatusInternalServerError, "Failed to look up profile", err)
	}

	user, err := s.provider.UserByID(userID)
	if err != nil {
		return nil, "", apperr.Provider(fiber.StatusInternalServerError, "Failed to get user data", err)
	}

	// OAuth providers put the display name in full_name or name.
	fullName := user.MetadataString("full_name")
	if fullName == "" {
		fullName = user.MetadataString("name")
	}
	firstName, lastName := SplitFullName(fullName)

	profile := &models.Profile{
		ID:                  user.ID,
		Email:               user.Email,
		FullName:            strings.TrimSpace(fullName),
		FirstName:           firstName,
		LastName:            lastName,
		AvatarURL:           user.MetadataString("avatar_url"),
		HasWaitlistDiscount: user.MetadataBool("has_waitlist_discount"),
		DiscountPercentage:  user.MetadataInt("discount_percentage"),
		Plan:                "free",
	}
	if err := s.profileRepo.Create(profile); err != nil {
		return nil, "", apperr.Provider(fiber.StatusInternalServerError, fmt.Sprintf("Failed to create profile: %v", err), err)
	}

	return profile, "Profile created successfully", nil
}

// SplitFullName derives first and last name from a display name: the first
// whitespace-separated token is the first name, the rest joined is the last.
func SplitFullName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ProfileUpdate carries the optional fields of a profile update request.
// Nil means "not supplied", which is distinct from an empty string.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	AvatarURL *string
}

// UpdateProfile applies a partial update. At least one field must be
// non-empty; name fields are trimmed and full_name recomputed from the
// supplied values plus the currently stored ones. updated_at is stamped on
// every update.
func (s *ProfileService) UpdateProfile(userID string, update ProfileUpdate) (*models.Profile, error) {
	hasFirst := update.FirstName != nil && strings.TrimSpace(*update.FirstName) != ""
	hasLast := update.LastName != nil && strings.TrimSpace(*update.LastName) != ""
	hasAvatar := update.AvatarURL != nil && *update.AvatarURL != ""
	if !hasFirst && !hasLast && !hasAvatar {
		return nil, apperr.Validation("At least one field is required")
	}

	fields := map[string]any{
		"updated_at": time.Now(),
	}
	if update.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*update.LastName)
	}
	if update.AvatarURL != nil {
		fields["avatar_url"] = *update.AvatarURL
	}

	if update.FirstName != nil || update.LastName != nil {
		firstName, lastName := "", ""
		if current, err := s.profileRepo.GetByID(userID); err == nil {
			firstName = current.FirstName
			lastName = current.LastName
		}
		if update.FirstName != nil {
			firstName = strings.TrimSpace(*update.FirstName)
		}
		if update.LastName != nil {
			lastName = strings.TrimSpace(*update.LastName)
		}
		fields["full_name"] = strings.TrimSpace(firstName + " " + lastName)
	}

	profile, err := s.profileRepo.UpdateFields(userID, fields)
	if err != nil {
		return nil, apperr.Provider(fiber.StatusBadRequest, err.Error(), err)
	}
	return profile, nil
}

// AvatarUpload is the validated payload of an avatar upload request.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadAvatar validates the file, supersedes the caller's previous avatar
// object, uploads the new one with upsert semantics, and writes its public
// URL into the profile. Validation happens before any provider call.
func (s *ProfileService) UploadAvatar(userID string, upload AvatarUpload) (string, *models.Profile, error) {
	if !contains(allowedAvatarTypes, upload.ContentType) {
		return "", nil, apperr.Validation("Invalid file type. Only JPEG, PNG, GIF, and WebP images are allowed")
	}
	if len(upload.Data) > MaxAvatarSize {
		return "", nil, apperr.Validation("File too large. Maximum size is 5MB")
	}

	ext := "jpg"
	if idx := strings.LastIndex(upload.Filename, "."); idx >= 0 && idx < len(upload.Filename)-1 {
		ext = upload.Filename[idx+1:]
	}
	objectPath := fmt.Sprintf("%s/avatar-%d.%s", userID, time.Now().UnixMilli(), ext)

	// Supersede the previous object. The old path is the last two segments
	// of the stored public URL. Removal is best-effort: a stale object is
	// preferable to failing the whole upload.
	if current, err := s.profileRepo.GetByID(userID); err == nil && current.AvatarURL != "" {
		segments := strings.Split(current.AvatarURL, "/")
		if len(segments) >= 2 {
			oldPath := strings.Join(segments[len(segments)-2:], "/")
			if err := s.store.Remove(AvatarBucket, []string{oldPath}); err != nil {
				log.Printf("Failed to remove old avatar %s for user %s: %v", oldPath, userID, err)
			}
		}
	}

	storedPath, err := s.store.Upload(AvatarBucket, objectPath, upload.Data, upload.ContentType, true)
	if err != nil {
		return "", nil, apperr.Provider(fiber.StatusBadRequest, fmt.Sprintf("Upload failed: %v", err), err)
	}

	publicURL := s.store.PublicURL(AvatarBucket, storedPath)

	profile, err := s.profileRepo.UpdateFields(userID, map[string]any{"avatar_url": publicURL})
	if err != nil {
		return "", nil, apperr.Provider(fiber.StatusBadRequest, err.Error(), err)
	}

	return publicURL, profile, nil
}

// EnsureAvatarBucket makes sure the avatars bucket exists with its public
// visibility, size cap, and MIME whitelist. It reports whether the bucket
// was created by this call.
func (s *ProfileService) EnsureAvatarBucket() (bool, error) {
	buckets, err := s.store.ListBuckets()
	if err != nil {
		return false, apperr.Provider(fiber.StatusInternalServerError, "Failed to list storage buckets", err)
	}
	for _, bucket := range buckets {
		if bucket.Name == AvatarBucket {
			return false, nil
		}
	}

	err = s.store.CreateBucket(storage.Bucket{
		Name:             AvatarBucket,
		Public:           true,
		FileSizeLimit:    MaxAvatarSize,
		AllowedMimeTypes: allowedAvatarTypes,
	})
	if err != nil {
		return false, apperr.Provider(fiber.StatusInternalServerError, fmt.Sprintf("Failed to create storage bucket: %v", err), err)
	}
	return true, nil
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
