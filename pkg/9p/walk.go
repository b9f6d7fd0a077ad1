package p9

import "fmt"

// Walk answers a Twalk for names. step resolves one name relative to where
// the previous step left off.
//
// A walk of no names clones the fid and always succeeds. If the first name
// fails the reply is an Rerror; if a later one fails the reply is an Rwalk
// holding the qids resolved before it, which Rwalk.Complete reports as
// incomplete. A failure at the first name never yields an Rwalk with zero
// qids, since that would read as a successful clone.
func Walk(names []string, step func(name string) (Qid, error)) Fcall {
	if len(names) > MaxWalkElem {
		return &Rerror{Ename: fmt.Sprintf("walk of %d names exceeds %d", len(names), MaxWalkElem)}
	}

	var qids []Qid
	for i, name := range names {
		q, err := step(name)
		if err != nil {
			if i == 0 {
				return &Rerror{Ename: err.Error()}
			}
			break
		}
		qids = append(qids, q)
	}
	return &Rwalk{Wqids: qids}
}
