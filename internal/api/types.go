package api

// Status describes the served statevector and its pools.
type Status struct {
	Precision     string `json:"precision"`
	ChunkBits     int    `json:"chunk_bits"`
	NumChunks     int    `json:"num_chunks"`
	NumBuffers    int    `json:"num_buffers"`
	NumCheckpoint int    `json:"num_checkpoint"`
	Devices       int    `json:"devices"`
	SizeElements  int    `json:"size_elements"`
	Workers       int    `json:"workers"`
}

// SampleRequest asks for measurement shots drawn from one chunk.
type SampleRequest struct {
	Chunk int    `json:"chunk"`
	Shots int    `json:"shots"`
	Seed  *int64 `json:"seed,omitempty"`
}

// SampleResponse carries the sampled outcome indices for one request.
type SampleResponse struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
	Chunk     int    `json:"chunk"`
	Shots     int    `json:"shots"`
	Samples   []int  `json:"samples"`
}

// ResponseError is the error payload returned by every failing route.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
