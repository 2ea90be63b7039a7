package audiobook

// Manifest directive keys recognised in book metadata.
const (
	DirectiveTitle       = "title"
	DirectiveAuthor      = "author"
	DirectiveNarrator    = "narrator"
	DirectiveGenre       = "genre"
	DirectiveYear        = "year"
	DirectiveDescription = "description"
	DirectiveOutputPath  = "output_path"
	DirectiveCoverPath   = "cover_path"
)

// BookDefaults are the last-resort values used by MergeBook.
type BookDefaults struct {
	Title string
	Genre string
}

// MergeBook assembles book metadata with precedence explicit value, then
// manifest directive, then the first track's tags, then defaults.
func MergeBook(explicit Book, directives map[string]string, first Track, defaults BookDefaults) Book {
	title := firstNonEmpty(explicit.Title, directives[DirectiveTitle], first.Album, defaults.Title)
	author := firstNonEmpty(explicit.Author, directives[DirectiveAuthor], first.AlbumArtist, first.Artist)
	return Book{
		Title:       title,
		Album:       firstNonEmpty(explicit.Album, title),
		Artist:      firstNonEmpty(explicit.Artist, directives[DirectiveAuthor], first.Artist, author),
		Author:      author,
		Narrator:    firstNonEmpty(explicit.Narrator, directives[DirectiveNarrator], first.Composer),
		Genre:       firstNonEmpty(explicit.Genre, directives[DirectiveGenre], first.Genre, defaults.Genre),
		Year:        firstNonEmpty(explicit.Year, directives[DirectiveYear], first.Date),
		Description: firstNonEmpty(explicit.Description, directives[DirectiveDescription]),
		CoverRef:    firstNonEmpty(explicit.CoverRef, directives[DirectiveCoverPath]),
		OutputPath:  firstNonEmpty(explicit.OutputPath, directives[DirectiveOutputPath]),
	}
}
