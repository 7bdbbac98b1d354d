// Copyright 2025 Chitragupta Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kartavya

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the standard 5-field expression (minute hour
// dom month dow), which is what Trigger.Condition carries for
// TriggerCron.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// matchesCron reports whether expr fires during the minute containing
// now. robfig/cron's Schedule only exposes Next(t), which answers
// "when does this next fire after t" rather than "does this fire at
// t" — so the match is derived by truncating now to the minute and
// checking that the next firing after one second earlier lands
// exactly on that minute. A malformed expr never matches.
func matchesCron(expr string, now time.Time) bool {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return false
	}
	minute := now.Truncate(time.Minute)
	next := schedule.Next(minute.Add(-time.Second))
	return next.Equal(minute)
}
