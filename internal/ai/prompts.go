package ai

import (
	"fmt"
	"strings"
)

// ChatInput is the context embedded in an assistant prompt. Stats and Resume
// are JSON documents; either may be empty.
type ChatInput struct {
	Name     string
	Stats    string
	Resume   string
	Question string
}

func ChatPrompt(in ChatInput) string {
	var b strings.Builder
	b.WriteString("You are CodeMinder, a friendly coding mentor.\n")
	fmt.Fprintf(&b, "The user's name is %s. Address them by name.\n", in.Name)
	b.WriteString("Use the background below to personalise the answer, but never mention that you were given data ")
	b.WriteString("and never start with phrases like \"Based on the data\".\n")
	b.WriteString("If the question is unrelated to the background, still give a relevant, helpful answer.\n")
	b.WriteString("Answer in at most 5 lines of plain text.\n\n")
	if in.Stats != "" {
		fmt.Fprintf(&b, "Coding platform statistics:\n%s\n\n", in.Stats)
	}
	if in.Resume != "" {
		fmt.Fprintf(&b, "Resume:\n%s\n\n", in.Resume)
	}
	fmt.Fprintf(&b, "Question: %s\n", in.Question)
	return b.String()
}

func ResumeAnalysisPrompt(resumeText, category string) string {
	return fmt.Sprintf(`You are an expert resume evaluator. Given the following resume text, analyze how suitable the candidate is for the job role: %q.

Return JSON in exactly this format:
{
  "matchPercentage": 0-100,
  "missingKeywords": [],
  "strengths": [],
  "suggestions": [],
  "summary": "short paragraph"
}

Return only the JSON object, no markdown and no extra text.

Resume Text:
%s
`, category, resumeText)
}

func ResumeExtractionPrompt(resumeText string) string {
	return `You are a resume parser. Return every piece of information in the resume below as one JSON object.

Include these sections when present:
- name
- email
- phone
- location
- summary
- skills
- experience (jobTitle, company, startDate, endDate, description)
- education (degree, institution, startDate, endDate)
- certifications
- projects

Also include any other section found in the resume (languages, awards, volunteer work, publications, interests).
Use section names as keys and strings, arrays or objects as values. Return only the JSON object.

Resume Text:
` + resumeText + "\n"
}

// InterviewQuestionCount is how many questions a generated interview has.
const InterviewQuestionCount = 5

func InterviewPrompt(jobRole, jobDescription, experienceLevel string) string {
	return fmt.Sprintf(`You are an experienced technical interviewer.
Write %d interview questions for a %s candidate applying for the role %q.

Job description:
%s

For each question also write a strong model answer.
Return only a JSON array of objects with the keys "questionText" and "aiAnswer".
`, InterviewQuestionCount, experienceLevel, jobRole, jobDescription)
}

func AnswerFeedbackPrompt(jobRole, question, reference, answer string) string {
	return fmt.Sprintf(`You are grading an interview answer for the role %q.

Question: %s
Model answer: %s
Candidate answer: %s

Score the candidate answer from 0 to 10 and give short, constructive feedback.
Return only a JSON object: {"score": <integer 0-10>, "feedback": "<text>"}
`, jobRole, question, reference, answer)
}

// RoadmapInput are the learner's answers used to plan a roadmap.
type RoadmapInput struct {
	Goal                 string
	SkillLevel           string
	AvailableTimePerWeek string
	LearningStyle        string
}

func RoadmapPrompt(in RoadmapInput) string {
	return fmt.Sprintf(`You are a career mentor. Build a personalised learning roadmap.

Goal: %s
Current skill level: %s
Available time per week: %s
Preferred learning style: %s

Split the roadmap into 5 to 8 stages. Each stage is an object with the keys:
"stage", "description", "duration", "topics_to_learn" (array), "action_steps" (array),
"motivation_reminder", "resources" (array), "difficulty_level" (Easy, Medium or Hard), "expected_outcome".

Return only the JSON array of stages.
`, in.Goal, in.SkillLevel, in.AvailableTimePerWeek, in.LearningStyle)
}
