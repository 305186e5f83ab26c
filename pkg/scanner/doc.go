// Package scanner runs the live scan pipeline: it watches a document for
// changes, debounces them into passes, and drives each segment through the
// scoring engine and the suppression tracker.
//
// # Usage
//
//	doc := document.New()
//	tracker := suppression.NewTracker(suppression.TrackerConfig{
//	    Presenter: document.NewPresenter(doc),
//	})
//	ctrl, err := scanner.NewController(scanner.ControllerConfig{
//	    Document: doc,
//	    Tracker:  tracker,
//	})
//	if err != nil {
//	    return err
//	}
//	defer ctrl.Close()
//
//	_ = ctrl.UpdateProfile(&detection.Profile{BlockedKeywords: []string{"Walter White"}})
//	ctrl.SetEnabled(true)
//
// From then on, every document mutation schedules a pass.
package scanner
