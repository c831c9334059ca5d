// Package aggregator merges AI-extracted resume data into a user profile.
//
// Values the user entered always win. Extracted values only fill fields the
// user left empty, with two exceptions: skills are the union of both lists,
// and the AI-owned fields (summary, AI skills, the raw extract) are always
// replaced.
package aggregator

import (
	"strings"

	"github.com/sakif/swipejobs/internal/model"
)

// Merge returns the profile update that folds x into u. It does not modify u.
func Merge(u *model.User, x *model.ResumeExtract) model.ProfileUpdate {
	var upd model.ProfileUpdate

	upd.Phone = fill(u.Phone, x.Phone)
	upd.Location = fill(u.Location, x.Location)
	upd.LinkedInURL = fill(u.LinkedInURL, x.LinkedInURL)
	upd.GitHubURL = fill(u.GitHubURL, x.GitHubURL)
	upd.PortfolioURL = fill(u.PortfolioURL, x.PortfolioURL)

	if u.YearsExperience == nil && x.YearsExperience != nil {
		years := *x.YearsExperience
		upd.YearsExperience = &years
	}

	if skills := UnionSkills(u.Skills, x.Skills); len(skills) != len(u.Skills) || hasBlank(u.Skills) {
		upd.Skills = &skills
	}

	if langs, changed := fillMap(u.ProgrammingLanguages, x.ProgrammingLanguages); changed {
		upd.ProgrammingLanguages = &langs
	}

	aiSkills := UnionSkills(nil, x.Skills)
	summary := strings.TrimSpace(x.Summary)
	parsed := true
	extract := *x
	upd.AISkills = &aiSkills
	upd.AISummary = &summary
	upd.ResumeParsed = &parsed
	upd.ResumeExtracted = &extract
	return upd
}

// UnionSkills returns mine followed by every skill of theirs not already
// present. Comparison is exact (case-sensitive) after trimming; blanks and
// duplicates are dropped.
func UnionSkills(mine, theirs []string) model.StringList {
	out := model.StringList{}
	seen := make(map[string]bool, len(mine)+len(theirs))
	for _, list := range [][]string{mine, theirs} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Projects converts extracted projects into rows tagged with the resume
// source. Entries without a title are skipped.
func Projects(userID string, x *model.ResumeExtract) []model.Project {
	out := make([]model.Project, 0, len(x.Projects))
	for _, p := range x.Projects {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		out = append(out, model.Project{
			UserID:       userID,
			Title:        title,
			Description:  strings.TrimSpace(p.Description),
			Technologies: UnionSkills(nil, p.Technologies),
			ProjectURL:   strings.TrimSpace(p.URL),
			Source:       model.ProjectSourceResume,
		})
	}
	return out
}

func fill(current, extracted string) *string {
	if strings.TrimSpace(current) != "" {
		return nil
	}
	v := strings.TrimSpace(extracted)
	if v == "" {
		return nil
	}
	return &v
}

func fillMap(current model.StringMap, extracted map[string]string) (model.StringMap, bool) {
	out := make(model.StringMap, len(current)+len(extracted))
	for k, v := range current {
		out[k] = v
	}
	changed := false
	for k, v := range extracted {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := out[k]; ok {
			continue
		}
		out[k] = strings.TrimSpace(v)
		changed = true
	}
	return out, changed
}

func hasBlank(list []string) bool {
	for _, s := range list {
		if strings.TrimSpace(s) != s || s == "" {
			return true
		}
	}
	return false
}
