package describer

const guidelines = "You are an expert in accessibility, familiar with ADA and WCAG guidelines. " +
	"Your task is to review the image and create a detailed, accurate, and meaningful alt text description " +
	"that makes the image accessible to all users, including those with visual impairments. " +
	"If the image is decorative and does not convey meaningful information, return a blank string (''). " +
	"If the image is mainly white space, or a single color, return a blank string. " +
	"If the image is clearly decorative return a blank string. " +
	"If the image just contains blocks or stripes or a band of color, return a blank string. "

// CreatePrompt asks for new alt text.
const CreatePrompt = guidelines +
	"Ensure the description is concise, ideally under 200 characters, and focuses on key elements and " +
	"context without starting with phrases like '[image / artwork of]'. " +
	"Only return the alt text, no explanation or reasoning behind why you chose it."

// VerifyBlankPrompt asks whether an image is right to have no alt text.
const VerifyBlankPrompt = "Is a blank alt text for this image correct?\n" + guidelines +
	"If a blank alt text is not correct, explain why and suggest a replacement."

// VerifyPrompt asks whether existing alt text is correct.
func VerifyPrompt(existing string) string {
	return "Is the following alt text for this image correct?\n\n" + existing +
		"\n\nIf not, briefly explain why and suggest a replacement."
}

// Prompt returns the prompt for req.
func Prompt(req Request) string {
	if req.Kind != Verify {
		return CreatePrompt
	}
	if req.ExistingAlt == nil || *req.ExistingAlt == "" {
		return VerifyBlankPrompt
	}
	return VerifyPrompt(*req.ExistingAlt)
}
