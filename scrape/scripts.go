package scrape

// consentScript clicks the first cookie-consent button it finds and reports
// whether it clicked anything.
const consentScript = `() => {
	const labels = ['Accept all', 'Aceitar tudo', 'Reject all', 'Rejeitar tudo'];
	for (const label of labels) {
		const button = document.querySelector('button[aria-label="' + label + '"]');
		if (button) {
			button.click();
			return true;
		}
	}
	const form = document.querySelector('form[action*="consent"] button');
	if (form) {
		form.click();
		return true;
	}
	return false;
}`

// autoScrollScript scrolls the results feed in 200px steps every 150ms until
// it stops moving or maxMillis elapses, so lazily rendered results load.
const autoScrollScript = `async (maxMillis) => {
	const target = document.querySelector('div[role="feed"]') ||
		document.querySelector('[role="main"]') ||
		document.scrollingElement ||
		document.body;
	const deadline = Date.now() + maxMillis;
	let last = -1;
	let still = 0;
	while (Date.now() < deadline) {
		target.scrollBy(0, 200);
		await new Promise((resolve) => setTimeout(resolve, 150));
		if (target.scrollTop === last) {
			still++;
			if (still >= 5) break;
		} else {
			still = 0;
		}
		last = target.scrollTop;
	}
	return target.scrollTop;
}`
