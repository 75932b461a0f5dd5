package engine

// The types below carry the subset of the Docker Engine API responses the
// exporter reads. Unknown fields are ignored when decoding.

// Version is the response of GET /version.
type Version struct {
	Version       string `json:"Version"`
	APIVersion    string `json:"ApiVersion"`
	MinAPIVersion string `json:"MinAPIVersion"`
	GitCommit     string `json:"GitCommit"`
	GoVersion     string `json:"GoVersion"`
	Os            string `json:"Os"`
	Arch          string `json:"Arch"`
	KernelVersion string `json:"KernelVersion"`
}

// Info is the response of GET /info.
type Info struct {
	ID                string `json:"ID"`
	Name              string `json:"Name"`
	Containers        int    `json:"Containers"`
	ContainersRunning int    `json:"ContainersRunning"`
	ContainersPaused  int    `json:"ContainersPaused"`
	ContainersStopped int    `json:"ContainersStopped"`
	Images            int    `json:"Images"`
	ServerVersion     string `json:"ServerVersion"`
	OperatingSystem   string `json:"OperatingSystem"`
	NCPU              int    `json:"NCPU"`
	MemTotal          int64  `json:"MemTotal"`
}

// Container is one entry of GET /containers/json.
type Container struct {
	ID      string            `json:"Id"`
	Names   []string          `json:"Names"`
	Image   string            `json:"Image"`
	Command string            `json:"Command"`
	Created int64             `json:"Created"`
	State   string            `json:"State"`
	Status  string            `json:"Status"`
	Labels  map[string]string `json:"Labels"`
}

// ContainerState is the State block of GET /containers/{id}/json.
type ContainerState struct {
	Status     string `json:"Status"`
	Running    bool   `json:"Running"`
	Paused     bool   `json:"Paused"`
	Restarting bool   `json:"Restarting"`
	OOMKilled  bool   `json:"OOMKilled"`
	Dead       bool   `json:"Dead"`
	Pid        int    `json:"Pid"`
	ExitCode   int    `json:"ExitCode"`
	Error      string `json:"Error"`
	StartedAt  string `json:"StartedAt"`
	FinishedAt string `json:"FinishedAt"`
}

// ContainerJSON is the response of GET /containers/{id}/json.
type ContainerJSON struct {
	ID           string           `json:"Id"`
	Name         string           `json:"Name"`
	Image        string           `json:"Image"`
	Created      string           `json:"Created"`
	RestartCount int              `json:"RestartCount"`
	State        *ContainerState  `json:"State"`
	Config       *ContainerConfig `json:"Config"`
}

// ContainerConfig is the body of POST /containers/create.
type ContainerConfig struct {
	Image  string            `json:"Image"`
	Cmd    []string          `json:"Cmd,omitempty"`
	Env    []string          `json:"Env,omitempty"`
	Labels map[string]string `json:"Labels,omitempty"`
}

// CreateResponse is the response of POST /containers/create.
type CreateResponse struct {
	ID       string   `json:"Id"`
	Warnings []string `json:"Warnings"`
}

// EventActor identifies the object an Event concerns.
type EventActor struct {
	ID         string            `json:"ID"`
	Attributes map[string]string `json:"Attributes"`
}

// Event is one line of the GET /events stream.
type Event struct {
	Type     string     `json:"Type"`
	Action   string     `json:"Action"`
	Actor    EventActor `json:"Actor"`
	Scope    string     `json:"scope"`
	Time     int64      `json:"time"`
	TimeNano int64      `json:"timeNano"`
}
