package scaffold

const reactAppJS = `import React from 'react';
import './App.css';

function App() {
  return (
    <div className="App">
      <header className="App-header">
        <h1>Welcome to CipherStudio!</h1>
        <p>Start editing to see changes in real-time.</p>
      </header>
    </div>
  );
}

export default App;
`

const reactAppCSS = `.App {
  text-align: center;
  min-height: 100vh;
  display: flex;
  flex-direction: column;
  align-items: center;
  justify-content: center;
}

.App-header {
  background-color: #282c34;
  padding: 20px;
  border-radius: 10px;
  color: white;
}

.App-header h1 {
  margin: 0 0 10px 0;
}

.App-header p {
  margin: 0;
  opacity: 0.8;
}
`

const reactIndexJS = `import React from 'react';
import { createRoot } from 'react-dom/client';
import './index.css';
import App from './App';

const root = createRoot(document.getElementById('root'));
root.render(
  <React.StrictMode>
    <App />
  </React.StrictMode>
);
`

const baseIndexCSS = `body {
  margin: 0;
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Roboto',
    'Helvetica Neue', sans-serif;
  -webkit-font-smoothing: antialiased;
}

* {
  box-sizing: border-box;
}
`

const baseIndexHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>CipherStudio</title>
  </head>
  <body>
    <noscript>You need to enable JavaScript to run this app.</noscript>
    <div id="root"></div>
  </body>
</html>
`

const vueAppVue = `<template>
  <div class="app">
    <h1>Welcome to CipherStudio!</h1>
    <p>Start editing to see changes in real-time.</p>
  </div>
</template>

<script setup>
</script>

<style>
.app {
  text-align: center;
  padding: 40px;
}
</style>
`

const vueMainJS = `import { createApp } from 'vue';
import App from './App.vue';

createApp(App).mount('#root');
`

const vanillaIndexJS = `const root = document.getElementById('root');
root.innerHTML = '<h1>Welcome to CipherStudio!</h1>';
`
