package studio

import "time"

// Pose categories and genders used for reference assets
const (
	PoseFrontFullBody = "FRONT_FULL_BODY"
	GenderMale        = "MALE"
	GenderFemale      = "FEMALE"
)

// EditCost is the number of credits one generation consumes
const EditCost = 2

// Image is an upload held in memory so it can be resent after a token refresh
// ContentType is sniffed from Content when empty.
type Image struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Match is a reference asset the pose analysis matched against the upload
type Match struct {
	ID              string `json:"_id"`
	CloudinaryURL   string `json:"cloudinary_url"`
	PreeditedPrompt string `json:"preedited_prompt"`
	PoseCategory    string `json:"pose_category,omitempty"`
	Gender          string `json:"gender,omitempty"`
}

// Analysis is the /user/analyze-pose reply
type Analysis struct {
	Pose         string  `json:"pose"`
	Matches      []Match `json:"matches"`
	UserImageURL string  `json:"userImageUrl"`
	Error        string  `json:"error,omitempty"`
}

// EditResult is the /user/generate-edit reply
type EditResult struct {
	ImageURL         string `json:"imageUrl"`
	RemainingCredits int    `json:"remainingCredits"`
}

// Asset is a curated reference image
type Asset struct {
	ID              string    `json:"_id" yaml:"id"`
	CloudinaryURL   string    `json:"cloudinary_url" yaml:"url"`
	PoseCategory    string    `json:"pose_category" yaml:"pose_category"`
	Gender          string    `json:"gender" yaml:"gender"`
	PreeditedPrompt string    `json:"preedited_prompt" yaml:"preedited_prompt"`
	AdminNotes      string    `json:"admin_notes,omitempty" yaml:"admin_notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt" yaml:"created_at"`
}

// NewAsset is the admin upload form
type NewAsset struct {
	Image           Image
	PoseCategory    string
	Gender          string
	PreeditedPrompt string
	AdminNotes      string
}

// Extraction is what the server inferred from a reference image
type Extraction struct {
	Prompt string `json:"prompt"`
	Gender string `json:"gender,omitempty"`
	Pose   string `json:"pose,omitempty"`
}

// CommunityPost is a generated image shared to the community gallery
type CommunityPost struct {
	ID                string    `json:"_id" yaml:"id"`
	GeneratedImageURL string    `json:"generated_image_url" yaml:"url"`
	Prompt            string    `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	CreatedAt         time.Time `json:"createdAt" yaml:"created_at"`
}

// Proposal is the collaboration form on the landing page
type Proposal struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Idea  string `json:"idea"`
}
