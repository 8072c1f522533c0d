package model

// 跨库组合出来的只读视图

type MemeWithAuthor struct {
	Meme
	AuthorName  string  `json:"author_name"`
	AuthorPhoto *string `json:"author_photo"`
}

type AuthorMemes struct {
	Author
	Memes []MemeSummary `json:"memes"`
}

type AuthorComments struct {
	Author
	Comments []Comment `json:"comments"`
}

type CommentWithAuthor struct {
	Comment
	AuthorName  string  `json:"author_name"`
	AuthorPhoto *string `json:"author_photo"`
}

type Profile struct {
	Author
	Memes []Meme `json:"memes"`
}
