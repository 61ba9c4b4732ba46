/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package device

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// realtimePriority mirrors the nice value uhd::set_thread_priority_safe
// targets on the sample pump thread, grounded on
// RadioInterface::setPriority() forwarding to the device.
const realtimePriority = -20

// setPriority raises the scheduling priority of the calling goroutine's
// underlying OS thread. Go doesn't expose per-goroutine real-time
// scheduling classes, so this pins the goroutine to its OS thread first and
// then nices the whole process — a best-effort analogue of the original's
// pthread-level priority bump, not a true SCHED_FIFO promotion.
func setPriority() error {
	runtime.LockOSThread()
	return unix.Setpriority(unix.PRIO_PROCESS, 0, realtimePriority)
}
