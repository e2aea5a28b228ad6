package shellos

import (
	"strconv"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/term"
	"gitlab.com/tinyland/lab/oasis/pkg/vfs"
)

// pendingCmd is a suspended command waiting on the frame clock.
type pendingCmd struct {
	origin  string
	pend    *term.Pending
	dueAt   time.Duration
	// periodic pendings (watch) re-arm after every resume.
	periodic bool
}

// addPending queues a suspended command against the frame clock.
func (rt *Runtime) addPending(origin string, p *term.Pending) {
	pc := &pendingCmd{origin: origin, pend: p}
	if p.Every > 0 {
		pc.periodic = true
		pc.dueAt = rt.clock + p.Every
	} else {
		pc.dueAt = rt.clock + p.Delay
	}
	rt.pendings = append(rt.pendings, pc)
}

// runPending resumes due commands. A resumed one-shot leaves the
// queue; periodic ones re-arm.
func (rt *Runtime) runPending(dt time.Duration) {
	if len(rt.pendings) == 0 {
		return
	}
	var keep []*pendingCmd
	for _, pc := range rt.pendings {
		if rt.clock < pc.dueAt {
			keep = append(keep, pc)
			continue
		}
		out := pc.pend.Resume()
		rt.applyOutput(pc.origin, out)
		if pc.periodic && out.Kind != term.KindExit {
			pc.dueAt = rt.clock + pc.pend.Every
			keep = append(keep, pc)
		}
	}
	rt.pendings = keep
}

// cronJob is one scheduled script loaded from /etc/cron.
type cronJob struct {
	name     string
	path     string
	interval time.Duration
	dueAt    time.Duration
}

// loadCronJobs reads the cron registry written by the cron command.
func (rt *Runtime) loadCronJobs() {
	rt.cronJobs = nil
	entries, err := rt.fs.List("/etc/cron")
	if err != nil {
		return
	}
	for _, e := range entries {
		data, err := rt.fs.Read(vfs.Join("/etc/cron", e.Name))
		if err != nil {
			continue
		}
		lines := strings.SplitN(string(data), "\n", 3)
		if len(lines) < 2 || !strings.HasPrefix(lines[0], "#interval=") {
			continue
		}
		secs, err := strconv.ParseFloat(strings.TrimPrefix(lines[0], "#interval="), 64)
		if err != nil || secs <= 0 {
			continue
		}
		iv := time.Duration(secs * float64(time.Second))
		rt.cronJobs = append(rt.cronJobs, &cronJob{
			name: e.Name, path: strings.TrimSpace(lines[1]), interval: iv, dueAt: rt.clock + iv,
		})
	}
}

// runCron executes due scheduled scripts once per frame at most.
func (rt *Runtime) runCron() {
	for _, job := range rt.cronJobs {
		if rt.clock < job.dueAt {
			continue
		}
		job.dueAt = rt.clock + job.interval
		data, err := rt.fs.Read(job.path)
		if err != nil {
			rt.log.Warn("cron script missing", "job", job.name, "path", job.path)
			continue
		}
		for _, out := range rt.interp.RunScript(term.SplitScript(string(data))) {
			rt.applyOutput(job.name, out)
		}
	}
}

// runStartupScripts executes every registered boot script in name
// order.
func (rt *Runtime) runStartupScripts() {
	entries, err := rt.fs.List("/etc/startup")
	if err != nil {
		return
	}
	for _, e := range entries {
		data, err := rt.fs.Read(vfs.Join("/etc/startup", e.Name))
		if err != nil {
			continue
		}
		for _, out := range rt.interp.RunScript(term.SplitScript(string(data))) {
			rt.applyOutput(e.Name, out)
		}
	}
}
