package usecase

import (
	"fmt"
	"strings"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

// Fixed folder scopes per intent, mirroring the corpus layout. These are
// whole-term folder matches, never content matches.
var (
	policyFolderTerms    = []string{"Policies", "Health and Safety", "Wellbeing", "Wellness", "Company Documents"}
	procedureFolderTerms = []string{"Procedures", "How to Handbooks", "H2H", "Technical Procedures"}
	standardsFolderTerms = []string{"Standards", "NZS", "Codes", "Technical Library"}
)

const (
	projectsFolderRoot = "Projects/"
	clientsFolderRoot  = "Clients/"
)

// BuildFilter derives the retrieval scope from (intent, metadata). It is pure
// and total: no input combination errors, missing metadata just degrades to
// the broadest scope the intent allows (folder-only, or no filter at all).
// The returned tree references only structured fields (folder, project name,
// year); content fields are unrepresentable by construction.
func BuildFilter(intent domain.Intent, md domain.ExtractedMetadata) domain.FilterNode {
	switch intent {
	case domain.IntentPolicy:
		return folderScope(policyFolderTerms)
	case domain.IntentProcedure:
		return folderScope(procedureFolderTerms)
	case domain.IntentStandards:
		return folderScope(standardsFolderTerms)
	case domain.IntentProject:
		return projectScope(md)
	case domain.IntentClient:
		return clientScope(md)
	default:
		return nil
	}
}

func folderScope(terms []string) domain.FilterNode {
	return domain.TermMatchFilter{Field: domain.FieldFolder, Terms: terms}
}

// projectScope narrows from most to least specific: exact job number, then a
// bucket range, then a single bucket prefix, then nothing. The job number is
// matched as a whole path segment / exact project name so a document that
// merely mentions the digits in its body can never slip through.
func projectScope(md domain.ExtractedMetadata) domain.FilterNode {
	if md.JobNumber != "" {
		return domain.OrFilter{Nodes: []domain.FilterNode{
			domain.TermMatchFilter{Field: domain.FieldFolder, Terms: []string{md.JobNumber}},
			domain.EqualsFilter{Field: domain.FieldProjectName, Value: md.JobNumber},
		}}
	}
	if md.YearRange != nil {
		buckets := md.YearRange.Buckets()
		nodes := make([]domain.FilterNode, 0, len(buckets))
		for _, b := range buckets {
			nodes = append(nodes, bucketRange(b))
		}
		if len(nodes) == 1 {
			return nodes[0]
		}
		return domain.OrFilter{Nodes: nodes}
	}
	if md.YearCode != "" {
		return domain.OrFilter{Nodes: []domain.FilterNode{
			domain.PrefixFilter{Field: domain.FieldFolder, Prefix: projectsFolderRoot + md.YearCode + "/"},
			domain.PrefixFilter{Field: domain.FieldProjectName, Prefix: md.YearCode},
		}}
	}
	return nil
}

// bucketRange covers every job folder within one year bucket as a half-open
// lexical range on the folder path: >= "Projects/221/" and < "Projects/222/".
func bucketRange(bucket int) domain.FilterNode {
	return domain.RangeFilter{
		Field: domain.FieldFolder,
		GE:    fmt.Sprintf("%s%d/", projectsFolderRoot, bucket),
		LT:    fmt.Sprintf("%s%d/", projectsFolderRoot, bucket+1),
	}
}

func clientScope(md domain.ExtractedMetadata) domain.FilterNode {
	folder := domain.PrefixFilter{Field: domain.FieldFolder, Prefix: clientsFolderRoot}
	if md.ClientHint == "" {
		return folder
	}
	terms := strings.Fields(md.ClientHint)
	return domain.AndFilter{Nodes: []domain.FilterNode{
		folder,
		domain.TermMatchFilter{Field: domain.FieldProjectName, Terms: terms},
	}}
}
