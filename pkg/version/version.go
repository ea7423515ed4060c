package version

import (
	"encoding/json"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

type Info struct {
	Commit string `json:"commit"`
	Time   string `json:"time"`
	Go     string `json:"go"`
}

func Get() Info {
	v := Info{}
	if info, ok := debug.ReadBuildInfo(); ok {
		v.Go = info.GoVersion
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				v.Commit = setting.Value
			}
			if setting.Key == "vcs.time" {
				v.Time = setting.Value
			}
		}
	}
	return v
}

var Version = func() string {
	v := Get()
	b, err := json.Marshal(&v)
	if err != nil {
		logrus.Fatal(err)
	}

	return string(b)
}()
