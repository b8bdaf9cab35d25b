package importer

import (
	"sort"

	"github.com/shishobooks/librarr/pkg/qualities"
)

// groupByBook collects the approved decisions that point at a book, keyed by
// foreign book id in order of first appearance.
func groupByBook(decisions []*ImportDecision) [][]*ImportDecision {
	index := map[string]int{}
	groups := [][]*ImportDecision{}
	for _, d := range decisions {
		if !d.Approved() || d.Item == nil || d.Item.Book == nil {
			continue
		}
		key := d.Item.Book.ForeignBookID
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], d)
	}
	return groups
}

// orderForImport flattens the approved decisions into processing order:
// authors in order of first appearance, and within an author best quality
// first (by the author's profile) then largest file first.
func orderForImport(decisions []*ImportDecision) []*ImportDecision {
	index := map[int]int{}
	byAuthor := [][]*ImportDecision{}
	for _, d := range decisions {
		if !d.Approved() || d.Item == nil {
			continue
		}
		authorID := 0
		if d.Item.Author != nil {
			authorID = d.Item.Author.ID
		}
		i, ok := index[authorID]
		if !ok {
			i = len(byAuthor)
			index[authorID] = i
			byAuthor = append(byAuthor, nil)
		}
		byAuthor[i] = append(byAuthor[i], d)
	}

	ordered := make([]*ImportDecision, 0, len(decisions))
	for _, group := range byAuthor {
		comparer := qualities.NewComparer(nil)
		if author := group[0].Item.Author; author != nil {
			comparer = qualities.NewComparer(author.QualityProfile)
		}
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i].Item, group[j].Item
			if c := comparer.Compare(a.Quality, b.Quality); c != 0 {
				return c > 0
			}
			return a.Size > b.Size
		})
		ordered = append(ordered, group...)
	}
	return ordered
}
