package exportdto

// RenderRequest asks for one board image. Zero values fall back to server defaults.
type RenderRequest struct {
	FEN         string  `json:"fen"`
	Format      string  `json:"format,omitempty"`
	Name        string  `json:"name,omitempty"`
	BoardSize   float64 `json:"board_size,omitempty"`
	Coordinates *bool   `json:"coordinates,omitempty"`
	Flipped     bool    `json:"flipped,omitempty"`
	Quality     int     `json:"quality,omitempty"`
	Target      string  `json:"target,omitempty"`
	LightColor  string  `json:"light_color,omitempty"`
	DarkColor   string  `json:"dark_color,omitempty"`
	BorderColor string  `json:"border_color,omitempty"`
}

type ValidateRequest struct {
	FEN string `json:"fen"`
}

type ValidateResponse struct {
	// Placement is the piece-placement check used before rendering.
	Placement bool `json:"placement"`
	// Record additionally checks side to move, castling, en passant and clocks.
	Record bool   `json:"record"`
	Error  string `json:"error,omitempty"`
}

type RandomResponse struct {
	FEN string `json:"fen"`
}

type BatchListResponse struct {
	IDs []string `json:"ids"`
}
