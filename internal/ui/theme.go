package ui

// themeInitScript applies the stored color mode before first paint.
const themeInitScript = `(function(){
  var root=document.documentElement;
  var media=window.matchMedia('(prefers-color-scheme: dark)');
  var mode='auto';
  try { mode=localStorage.getItem('dashboard-theme')||'auto'; } catch (_) {}
  if(mode!=='light'&&mode!=='dark'){ mode='auto'; }
  var resolved=mode==='auto'?(media.matches?'dark':'light'):mode;
  root.setAttribute('data-color-mode',mode);
  root.setAttribute('data-light-theme',resolved);
  root.setAttribute('data-dark-theme','dark');
})();`
